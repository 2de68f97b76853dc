package models

import "time"

// FacilityKind is the type of a distribution node
type FacilityKind string

const (
	FacilityMicroFulfillment FacilityKind = "MicroFulfillment"
	FacilityRegionalCenter   FacilityKind = "RegionalCenter"
	FacilityStore            FacilityKind = "Store"
)

// Valid reports whether k is a known facility kind
func (k FacilityKind) Valid() bool {
	switch k {
	case FacilityMicroFulfillment, FacilityRegionalCenter, FacilityStore:
		return true
	}
	return false
}

// DistributionNode is a fulfilment facility in the network
type DistributionNode struct {
	ID              string       `json:"id" yaml:"id"`
	City            string       `json:"city" yaml:"city"`
	Kind            FacilityKind `json:"kind" yaml:"kind"`
	CapacityPerHour float64      `json:"capacity_per_hour" yaml:"capacity_per_hour"`
	DemandPerHour   float64      `json:"demand_per_hour" yaml:"demand_per_hour"`
}

// CarrierKind groups carriers for capacity blending
type CarrierKind string

const (
	CarrierKindParcel CarrierKind = "parcel"
	CarrierKindCrowd  CarrierKind = "crowd"
)

// Names of the two parcel carriers whose capacity the scenario adjusts
const (
	CarrierUPS   = "UPS"
	CarrierFedEx = "FedEx"
)

// Carrier is a delivery provider
type Carrier struct {
	Name          string      `json:"name" yaml:"name"`
	Kind          CarrierKind `json:"kind" yaml:"kind"`
	OnTimeProb    float64     `json:"on_time_prob" yaml:"on_time_prob"`
	CostPerOrder  float64     `json:"cost_per_order" yaml:"cost_per_order"`
	DailyCapacity float64     `json:"daily_capacity" yaml:"daily_capacity"`
}

// BucketKPI holds the demand/capacity balance of one time bucket
type BucketKPI struct {
	Index    int     `json:"index"`
	Hour     int     `json:"hour"`
	Demand   float64 `json:"demand"`
	Capacity float64 `json:"capacity"`
	OnTime   float64 `json:"on_time"`
}

// KPIResult is the derived metric set for one scenario.
// It is recomputed from scratch on every scenario change.
type KPIResult struct {
	Buckets           []BucketKPI `json:"buckets"`
	Orders            float64     `json:"orders"`
	OnTimeRate        float64     `json:"on_time_rate"`
	LateRate          float64     `json:"late_rate"`
	AvoidedCost       float64     `json:"avoided_cost"`
	ConversionRate    float64     `json:"conversion_rate"`
	ConversionLiftPts float64     `json:"conversion_lift_pts"`
	CostPerOrder      float64     `json:"cost_per_order"`
}

// RecommendedAction is a proposed scenario change with its rationale
type RecommendedAction struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Detail  string  `json:"detail"`
	Impact  string  `json:"impact"`
	Changes []Delta `json:"changes"`

	// Apply returns the scenario with this action's changes applied.
	Apply func(ScenarioConfig) ScenarioConfig `json:"-"`
}

// MetricPoint represents a single metric data point
type MetricPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// MetricsSummary represents a summary of collected metrics
type MetricsSummary struct {
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Duration     time.Duration           `json:"duration"`
	Metrics      map[string][]float64    `json:"metrics"` // metric name -> values
	Aggregations map[string]*Aggregation `json:"aggregations,omitempty"`
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}
