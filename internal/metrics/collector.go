package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/GoSim-25-26J-441/promise-core/pkg/utils"
)

// Collector collects KPI time series for the lifetime of a session
type Collector struct {
	mu sync.RWMutex

	startTime time.Time

	// maxPoints caps each series; the oldest points are dropped first. 0 means unbounded.
	maxPoints int

	// metric name -> label key -> points, in record order
	timeSeries map[string]map[string][]*models.MetricPoint
}

// NewCollector creates a new metrics collector
func NewCollector(maxPoints int) *Collector {
	if maxPoints < 0 {
		maxPoints = 0
	}
	return &Collector{
		startTime:  time.Now(),
		maxPoints:  maxPoints,
		timeSeries: make(map[string]map[string][]*models.MetricPoint),
	}
}

// Record records a metric value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.timeSeries[name] == nil {
		c.timeSeries[name] = make(map[string][]*models.MetricPoint)
	}

	points := append(c.timeSeries[name][key], &models.MetricPoint{
		Timestamp: timestamp,
		Name:      name,
		Value:     value,
		Labels:    copyLabels(labels),
	})
	if c.maxPoints > 0 && len(points) > c.maxPoints {
		points = append([]*models.MetricPoint(nil), points[len(points)-c.maxPoints:]...)
	}
	c.timeSeries[name][key] = points
}

// RecordNow records a metric value at the current time
func (c *Collector) RecordNow(name string, value float64, labels map[string]string) {
	c.Record(name, value, time.Now(), labels)
}

// GetTimeSeries returns a copy of the points for a metric and label set
func (c *Collector) GetTimeSeries(name string, labels map[string]string) []*models.MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.getPointsUnsafe(name, labelKey(labels))
	if points == nil {
		return nil
	}
	return copyPoints(points)
}

// GetAllTimeSeries returns every point of a metric across label sets,
// ordered by timestamp
func (c *Collector) GetAllTimeSeries(name string) []*models.MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*models.MetricPoint
	for _, points := range c.timeSeries[name] {
		out = append(out, copyPoints(points)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// GetAggregation returns aggregated statistics for a metric and label set
func (c *Collector) GetAggregation(name string, labels map[string]string) *models.Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return calculateAggregation(c.getPointsUnsafe(name, labelKey(labels)))
}

// GetSummary returns every metric's values and its aggregation across all
// label sets
func (c *Collector) GetSummary() *models.MetricsSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := &models.MetricsSummary{
		StartTime:    c.startTime,
		EndTime:      c.startTime,
		Metrics:      make(map[string][]float64),
		Aggregations: make(map[string]*models.Aggregation),
	}

	for name, labelMap := range c.timeSeries {
		var all []*models.MetricPoint
		for _, points := range labelMap {
			all = append(all, points...)
		}
		values := make([]float64, 0, len(all))
		for _, p := range all {
			values = append(values, p.Value)
			if p.Timestamp.After(summary.EndTime) {
				summary.EndTime = p.Timestamp
			}
		}
		summary.Metrics[name] = values
		if agg := calculateAggregation(all); agg != nil {
			summary.Aggregations[name] = agg
		}
	}
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	return summary
}

// GetMetricNames returns all metric names that have been collected, sorted
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.timeSeries))
	for name := range c.timeSeries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetLabelsForMetric returns all label combinations for a metric
func (c *Collector) GetLabelsForMetric(name string) []map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.timeSeries[name] == nil {
		return nil
	}

	keys := make([]string, 0, len(c.timeSeries[name]))
	for key := range c.timeSeries[name] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	labelsList := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		if points := c.timeSeries[name][key]; len(points) > 0 {
			labelsList = append(labelsList, copyLabels(points[0].Labels))
		}
	}
	return labelsList
}

// Clear clears all collected metrics
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeSeries = make(map[string]map[string][]*models.MetricPoint)
	c.startTime = time.Now()
}

// getPointsUnsafe returns points without locking (caller must hold lock)
func (c *Collector) getPointsUnsafe(name, key string) []*models.MetricPoint {
	if c.timeSeries[name] == nil {
		return nil
	}
	return c.timeSeries[name][key]
}

// labelKey creates a key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func copyPoints(points []*models.MetricPoint) []*models.MetricPoint {
	out := make([]*models.MetricPoint, len(points))
	for i, p := range points {
		out[i] = &models.MetricPoint{
			Timestamp: p.Timestamp,
			Name:      p.Name,
			Value:     p.Value,
			Labels:    copyLabels(p.Labels),
		}
	}
	return out
}

// calculateAggregation calculates aggregated statistics from metric points
func calculateAggregation(points []*models.MetricPoint) *models.Aggregation {
	if len(points) == 0 {
		return nil
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	sort.Float64s(values)

	sum := utils.Sum(values)
	return &models.Aggregation{
		Count: int64(len(values)),
		Sum:   sum,
		Min:   values[0],
		Max:   values[len(values)-1],
		Mean:  sum / float64(len(values)),
		P50:   utils.Percentile(values, 50),
		P95:   utils.Percentile(values, 95),
		P99:   utils.Percentile(values, 99),
	}
}
