// Package pipeline runs the reference data through the KPI engine and the
// recommendation engine.
package pipeline

import (
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/compare"
	"github.com/GoSim-25-26J-441/promise-core/internal/kpi"
	"github.com/GoSim-25-26J-441/promise-core/internal/recommend"
	"github.com/GoSim-25-26J-441/promise-core/pkg/config"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/google/uuid"
)

// Evaluation pairs a scenario with the KPIs and actions derived from it
type Evaluation struct {
	ID          string                     `json:"id"`
	EvaluatedAt time.Time                  `json:"evaluated_at"`
	Scenario    models.ScenarioConfig      `json:"scenario"`
	KPI         models.KPIResult           `json:"kpi"`
	Actions     []models.RecommendedAction `json:"actions"`
}

// Preview is the result of applying every recommended action once
type Preview struct {
	Before     *Evaluation            `json:"before"`
	After      *Evaluation            `json:"after"`
	Comparison *compare.KPIComparison `json:"comparison"`
}

// DefaultObjective is used by Preview when none is given
const DefaultObjective = string(compare.ObjectiveMaximizeOnTime)

// Evaluator holds the reference data and rule engine shared by all evaluations
type Evaluator struct {
	network *config.Network
	rules   *recommend.Engine
	now     func() time.Time
}

// NewEvaluator creates an evaluator. Nil arguments select the built-in
// network and rules.
func NewEvaluator(network *config.Network, rules *recommend.Engine) *Evaluator {
	if network == nil {
		network = config.DefaultNetwork()
	}
	if rules == nil {
		rules = recommend.Default()
	}
	return &Evaluator{network: network, rules: rules, now: time.Now}
}

// Network returns the evaluator's reference data
func (e *Evaluator) Network() *config.Network {
	return e.network
}

// Rules returns the evaluator's rule engine
func (e *Evaluator) Rules() *recommend.Engine {
	return e.rules
}

// Evaluate normalizes cfg, computes its KPIs and then the actions proposed
// from those KPIs
func (e *Evaluator) Evaluate(cfg models.ScenarioConfig) *Evaluation {
	cfg = cfg.Normalize()
	result := kpi.ComputeKPIs(cfg, e.network.Nodes, e.network.Carriers)
	return &Evaluation{
		ID:          uuid.NewString(),
		EvaluatedAt: e.now(),
		Scenario:    cfg,
		KPI:         result,
		Actions:     e.rules.Propose(result, cfg),
	}
}

// Preview evaluates cfg, applies every proposed action and evaluates the
// result, scoring the change against objective
func (e *Evaluator) Preview(cfg models.ScenarioConfig, objective string) (*Preview, error) {
	if objective == "" {
		objective = DefaultObjective
	}
	obj, err := compare.NewObjectiveFunction(objective)
	if err != nil {
		return nil, err
	}

	before := e.Evaluate(cfg)
	after := e.Evaluate(recommend.ApplyAll(before.Scenario, before.Actions))

	cmp, err := compare.CompareKPIs(&before.KPI, &after.KPI, obj)
	if err != nil {
		return nil, fmt.Errorf("failed to compare preview: %w", err)
	}
	return &Preview{Before: before, After: after, Comparison: cmp}, nil
}
