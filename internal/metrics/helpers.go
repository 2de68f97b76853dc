package metrics

import (
	"time"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

// KPI metric names
const (
	MetricOnTimeRate     = "on_time_rate"
	MetricLateRate       = "late_rate"
	MetricConversionRate = "conversion_rate"
	MetricCostPerOrder   = "cost_per_order"
	MetricAvoidedCost    = "avoided_cost"
	MetricOrders         = "orders"
	MetricActionCount    = "recommended_actions"
)

// Evaluation sources, recorded as the "source" label
const (
	SourceUser  = "user"
	SourceStory = "story"
	SourceApply = "apply"
	SourceReset = "reset"
)

// KPIMetricNames lists the metrics RecordKPIs writes
func KPIMetricNames() []string {
	return []string{
		MetricOnTimeRate,
		MetricLateRate,
		MetricConversionRate,
		MetricCostPerOrder,
		MetricAvoidedCost,
		MetricOrders,
		MetricActionCount,
	}
}

// RecordKPIs records the headline values of one evaluation
func RecordKPIs(collector *Collector, kpi models.KPIResult, actions int, timestamp time.Time, labels map[string]string) {
	collector.Record(MetricOnTimeRate, kpi.OnTimeRate, timestamp, labels)
	collector.Record(MetricLateRate, kpi.LateRate, timestamp, labels)
	collector.Record(MetricConversionRate, kpi.ConversionRate, timestamp, labels)
	collector.Record(MetricCostPerOrder, kpi.CostPerOrder, timestamp, labels)
	collector.Record(MetricAvoidedCost, kpi.AvoidedCost, timestamp, labels)
	collector.Record(MetricOrders, kpi.Orders, timestamp, labels)
	collector.Record(MetricActionCount, float64(actions), timestamp, labels)
}

// CreateSourceLabels creates a labels map for an evaluation source
func CreateSourceLabels(source string) map[string]string {
	return map[string]string{
		"source": source,
	}
}

// SeriesView is the wire form of one metric's history
type SeriesView struct {
	Name        string                `json:"name"`
	Points      []*models.MetricPoint `json:"points"`
	Aggregation *models.Aggregation   `json:"aggregation,omitempty"`
}

// Snapshot returns the named metrics across every source, ordered by time.
// With no names it returns every KPI metric.
func Snapshot(collector *Collector, names ...string) []SeriesView {
	if len(names) == 0 {
		names = KPIMetricNames()
	}
	out := make([]SeriesView, 0, len(names))
	for _, name := range names {
		points := collector.GetAllTimeSeries(name)
		if points == nil {
			points = []*models.MetricPoint{}
		}
		out = append(out, SeriesView{
			Name:        name,
			Points:      points,
			Aggregation: calculateAggregation(points),
		})
	}
	return out
}

// SourceSnapshot is Snapshot restricted to evaluations from one source
func SourceSnapshot(collector *Collector, source string, names ...string) []SeriesView {
	if len(names) == 0 {
		names = KPIMetricNames()
	}
	labels := CreateSourceLabels(source)
	out := make([]SeriesView, 0, len(names))
	for _, name := range names {
		points := collector.GetTimeSeries(name, labels)
		if points == nil {
			points = []*models.MetricPoint{}
		}
		out = append(out, SeriesView{
			Name:        name,
			Points:      points,
			Aggregation: collector.GetAggregation(name, labels),
		})
	}
	return out
}

// MetricInfo names a recorded metric and the label sets it was seen with
type MetricInfo struct {
	Name   string              `json:"name"`
	Labels []map[string]string `json:"labels"`
}

// Catalog lists every recorded metric, sorted by name
func Catalog(collector *Collector) []MetricInfo {
	names := collector.GetMetricNames()
	out := make([]MetricInfo, 0, len(names))
	for _, name := range names {
		out = append(out, MetricInfo{Name: name, Labels: collector.GetLabelsForMetric(name)})
	}
	return out
}
