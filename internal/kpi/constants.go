package kpi

import "github.com/GoSim-25-26J-441/promise-core/pkg/models"

// BucketCount is the number of intraday time buckets
const BucketCount = 10

// FirstBucketHour is the clock hour at which bucket 0 starts
const FirstBucketHour = 8

// Time-of-day curve: base + amplitude*sin(pi*(bucket+phase)/BucketCount)
const (
	curveBase      = 0.85
	curveAmplitude = 0.35
	curvePhase     = 2
)

// Share of the first node's demand that a full rebalance moves away
const rebalanceShare = 0.25

const (
	weatherPenaltyPerUnit = -0.12

	memberBoostBase  = 0.02
	memberBoostSlope = 0.01
)

// Conversion model
const (
	BaselineConversion  = 0.024
	MinConversion       = 0.01
	MaxConversion       = 0.06
	conversionPivot     = 0.9
	conversionSharpness = 0.5
)

// Cost model
const (
	baseCostPerOrder       = 7.6
	crowdCostPerBoost      = 0.9
	shortfallCostPenalty   = 0.15
	BaselineLateRate       = 0.12
	LateOrderCost          = 8.0
	maxAvoidedLateRateGain = 0.2
)

var policyAdjustment = map[models.Policy]float64{
	models.PolicyAggressive: -0.05,
	models.PolicyBalanced:   0.0,
	models.PolicyReliable:   0.04,
}

var policyConversionLift = map[models.Policy]float64{
	models.PolicyAggressive: 0.003,
	models.PolicyBalanced:   0.001,
	models.PolicyReliable:   -0.001,
}
