// Package kpi computes delivery-promise KPIs for a scenario.
//
// ComputeKPIs is a pure function: identical inputs always produce identical
// results, and every rate it reports is clamped into its documented range.
package kpi

import (
	"math"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/GoSim-25-26J-441/promise-core/pkg/utils"
)

// CarrierMix is the effective daily capacity of each carrier group
type CarrierMix struct {
	UPS   float64
	FedEx float64
	Crowd float64
	Total float64

	// Blended is the capacity-weighted on-time probability of all groups.
	Blended float64
	// CrowdOTP is the capacity-weighted on-time probability of the crowd group.
	CrowdOTP float64
}

// BlendCarriers computes effective carrier capacity and the blended
// on-time probability for cfg.
func BlendCarriers(cfg models.ScenarioConfig, carriers []models.Carrier) CarrierMix {
	var ups, fedex *models.Carrier
	var crowdBase, crowdWeighted float64
	for i := range carriers {
		c := &carriers[i]
		switch {
		case c.Name == models.CarrierUPS:
			ups = c
		case c.Name == models.CarrierFedEx:
			fedex = c
		case c.Kind == models.CarrierKindCrowd:
			crowdBase += c.DailyCapacity
			crowdWeighted += c.DailyCapacity * c.OnTimeProb
		}
	}

	var mix CarrierMix
	var upsOTP, fedexOTP float64
	if ups != nil {
		mix.UPS = utils.FloorFloat64(ups.DailyCapacity*(1+cfg.UPSDelta), 0)
		upsOTP = ups.OnTimeProb
	}
	if fedex != nil {
		mix.FedEx = utils.FloorFloat64(fedex.DailyCapacity*(1+cfg.FedExDelta), 0)
		fedexOTP = fedex.OnTimeProb
	}
	mix.Crowd = utils.FloorFloat64(crowdBase*(1+cfg.CrowdBoost), 0)
	if crowdBase > 0 {
		mix.CrowdOTP = crowdWeighted / crowdBase
	}

	mix.Total = utils.FloorFloat64(mix.UPS+mix.FedEx+mix.Crowd, 1)
	mix.Blended = (mix.UPS*upsOTP + mix.FedEx*fedexOTP + mix.Crowd*mix.CrowdOTP) / mix.Total
	return mix
}

// TimeOfDayMultiplier is the demand/capacity curve value for a bucket
func TimeOfDayMultiplier(bucket int) float64 {
	return curveBase + curveAmplitude*math.Sin(math.Pi*float64(bucket+curvePhase)/BucketCount)
}

// PolicyAdjustment is the additive on-time adjustment for a policy
func PolicyAdjustment(p models.Policy) float64 {
	return policyAdjustment[p]
}

// MemberReserveBoost is the on-time boost from reserving member capacity
func MemberReserveBoost(cfg models.ScenarioConfig) float64 {
	if !cfg.MemberReserve {
		return 0
	}
	return memberBoostBase + memberBoostSlope*cfg.MemberMix
}

// ComputeKPIs maps a scenario and the network reference data to KPIs.
// cfg is clamped into its slider domains first, so NaN or infinite fields
// behave like their nearest bound. The inputs are never modified and the
// result shares no memory with them.
func ComputeKPIs(cfg models.ScenarioConfig, nodes []models.DistributionNode, carriers []models.Carrier) models.KPIResult {
	cfg = cfg.Normalize()
	mix := BlendCarriers(cfg, carriers)

	var nodeDemand, nodeCapacity, firstNodeDemand float64
	for i, n := range nodes {
		nodeDemand += n.DemandPerHour
		nodeCapacity += n.CapacityPerHour
		if i == 0 {
			firstNodeDemand = n.DemandPerHour
		}
	}

	surge := 1 + cfg.Surge
	buckets := make([]models.BucketKPI, BucketCount)
	var totalDemand, servedWeighted float64
	for b := 0; b < BucketCount; b++ {
		m := TimeOfDayMultiplier(b)
		shift := cfg.Rebalance * rebalanceShare * firstNodeDemand * surge * m
		demand := utils.FloorFloat64(nodeDemand*surge*m-shift, 0)
		capacity := nodeCapacity * m
		ratio := utils.ClampFloat64(utils.SafeDiv(capacity, demand), 0, 1)

		buckets[b] = models.BucketKPI{
			Index:    b,
			Hour:     FirstBucketHour + b,
			Demand:   demand,
			Capacity: capacity,
			OnTime:   ratio,
		}
		totalDemand += demand
		servedWeighted += ratio * demand
	}
	serviceQuality := servedWeighted / utils.FloorFloat64(totalDemand, 1)

	weatherPenalty := weatherPenaltyPerUnit * cfg.Weather
	adjusted := utils.ClampFloat64(serviceQuality+PolicyAdjustment(cfg.Policy)+weatherPenalty, 0, 1)
	// the member boost is added after carrier blending so it is not scaled by it
	onTime := utils.ClampFloat64(adjusted*mix.Blended+MemberReserveBoost(cfg), 0, 1)
	late := 1 - onTime

	conv := utils.ClampFloat64(
		BaselineConversion+policyConversionLift[cfg.Policy]+(onTime-conversionPivot)*conversionSharpness,
		MinConversion, MaxConversion)

	cost := baseCostPerOrder + cfg.CrowdBoost*crowdCostPerBoost
	if cfg.UPSDelta < 0 {
		cost += shortfallCostPenalty
	}
	if cfg.FedExDelta < 0 {
		cost += shortfallCostPenalty
	}

	gain := utils.ClampFloat64(BaselineLateRate-late, -maxAvoidedLateRateGain, maxAvoidedLateRateGain)
	avoided := gain * totalDemand * LateOrderCost

	return models.KPIResult{
		Buckets:           buckets,
		Orders:            math.Round(totalDemand),
		OnTimeRate:        onTime,
		LateRate:          late,
		AvoidedCost:       finite(avoided),
		ConversionRate:    conv,
		ConversionLiftPts: (conv - BaselineConversion) * 100,
		CostPerOrder:      finite(cost),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
