// Package compare scores KPI results against an objective and reports how
// one result differs from another.
package compare

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/GoSim-25-26J-441/promise-core/pkg/utils"
)

// KPIComparison compares two KPI results (after - before)
type KPIComparison struct {
	Objective          string  `json:"objective"`
	ObjectiveDiff      float64 `json:"objective_diff"`
	Improvement        bool    `json:"improvement"`
	OnTimeRateDiff     float64 `json:"on_time_rate_diff"`
	LateRateDiff       float64 `json:"late_rate_diff"`
	CostPerOrderDiff   float64 `json:"cost_per_order_diff"`
	ConversionRateDiff float64 `json:"conversion_rate_diff"`
	AvoidedCostDiff    float64 `json:"avoided_cost_diff"`
	OrdersDiff         float64 `json:"orders_diff"`
}

// CompareKPIs compares two KPI results
func CompareKPIs(before, after *models.KPIResult, objective ObjectiveFunction) (*KPIComparison, error) {
	if before == nil {
		return nil, fmt.Errorf("before is nil")
	}
	if after == nil {
		return nil, fmt.Errorf("after is nil")
	}
	if objective == nil {
		return nil, fmt.Errorf("objective function is nil")
	}

	score1, err := objective.Evaluate(before)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate objective for before: %w", err)
	}
	score2, err := objective.Evaluate(after)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate objective for after: %w", err)
	}

	return &KPIComparison{
		Objective:          objective.Name(),
		ObjectiveDiff:      score2 - score1,
		Improvement:        score2 < score1,
		OnTimeRateDiff:     after.OnTimeRate - before.OnTimeRate,
		LateRateDiff:       after.LateRate - before.LateRate,
		CostPerOrderDiff:   after.CostPerOrder - before.CostPerOrder,
		ConversionRateDiff: after.ConversionRate - before.ConversionRate,
		AvoidedCostDiff:    after.AvoidedCost - before.AvoidedCost,
		OrdersDiff:         after.Orders - before.Orders,
	}, nil
}

// Trend labels for HistoryComparison
const (
	TrendImproving = "improving"
	TrendDegrading = "degrading"
	TrendStable    = "stable"
)

// ScoredKPI associates a KPI result with a label (a story step, an evaluation ID)
type ScoredKPI struct {
	Label string            `json:"label"`
	KPI   *models.KPIResult `json:"-"`
	Score float64           `json:"score"`
}

// HistoryComparison summarizes a sequence of KPI results
type HistoryComparison struct {
	Objective     string       `json:"objective"`
	Entries       []*ScoredKPI `json:"entries"`
	BestLabel     string       `json:"best_label"`
	WorstLabel    string       `json:"worst_label"`
	Trend         string       `json:"trend"`
	AverageScore  float64      `json:"average_score"`
	ScoreVariance float64      `json:"score_variance"`
}

// CompareHistory scores every entry in order and reports best, worst and trend
func CompareHistory(entries []*ScoredKPI, objective ObjectiveFunction) (*HistoryComparison, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries provided")
	}
	if objective == nil {
		return nil, fmt.Errorf("objective function is nil")
	}

	scores := make([]float64, len(entries))
	for i, e := range entries {
		score, err := objective.Evaluate(e.KPI)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate objective for %s: %w", e.Label, err)
		}
		entries[i].Score = score
		scores[i] = score
	}

	// lower is better for every objective
	bestIdx, worstIdx := 0, 0
	for i, score := range scores {
		if score < scores[bestIdx] {
			bestIdx = i
		}
		if score > scores[worstIdx] {
			worstIdx = i
		}
	}

	avg := utils.Mean(scores)
	return &HistoryComparison{
		Objective:     objective.Name(),
		Entries:       entries,
		BestLabel:     entries[bestIdx].Label,
		WorstLabel:    entries[worstIdx].Label,
		Trend:         determineTrend(scores),
		AverageScore:  avg,
		ScoreVariance: variance(scores, avg),
	}, nil
}

// trendThreshold is the least-squares slope below which a history is stable
const trendThreshold = 1e-4

func determineTrend(scores []float64) string {
	if len(scores) < 2 {
		return TrendStable
	}

	n := float64(len(scores))
	var sumX, sumY, sumXY, sumX2 float64
	for i, score := range scores {
		x := float64(i)
		sumX += x
		sumY += score
		sumXY += x * score
		sumX2 += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)

	if slope < -trendThreshold {
		return TrendImproving
	}
	if slope > trendThreshold {
		return TrendDegrading
	}
	return TrendStable
}

func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSqDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSqDiff += diff * diff
	}
	return sumSqDiff / float64(len(values))
}

// ImprovementPercent returns the relative change from score1 to score2 in
// percent, positive when score2 is better
func ImprovementPercent(score1, score2 float64) float64 {
	if score1 == 0 {
		return 0
	}
	return -((score2 - score1) / math.Abs(score1)) * 100
}
