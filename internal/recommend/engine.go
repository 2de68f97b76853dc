// Package recommend turns KPIs into recommended scenario changes.
package recommend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/diegoholiveira/jsonlogic/v3"
)

// Engine evaluates an ordered rule table against a KPI result
type Engine struct {
	rules  []compiledRule
	logger *slog.Logger
}

type compiledRule struct {
	Rule
	logic []byte
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the engine for the built-in rule table
func Default() *Engine {
	defaultOnce.Do(func() {
		e, err := ParseRules(defaultRulesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded rules are invalid: %v", err))
		}
		defaultEngine = e
	})
	return defaultEngine
}

// NewEngine compiles rules in order; IDs must be unique
func NewEngine(rules []Rule) (*Engine, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: at least one rule must be defined", ErrInvalidRule)
	}
	seen := make(map[string]bool, len(rules))
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate rule id: %s", ErrInvalidRule, r.ID)
		}
		seen[r.ID] = true
		logic, err := compile(r)
		if err != nil {
			return nil, err
		}
		r.Apply = append([]models.Delta(nil), r.Apply...)
		compiled = append(compiled, compiledRule{Rule: r, logic: logic})
	}
	return &Engine{rules: compiled, logger: logger.Default}, nil
}

// SetLogger sets the engine's logger
func (e *Engine) SetLogger(l *slog.Logger) {
	e.logger = l
}

// Rules returns the rule table in evaluation order
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Rule
		out[i].Apply = append([]models.Delta(nil), r.Apply...)
	}
	return out
}

// Propose evaluates every rule in order and returns the actions of those
// that fire. An empty result means "hold the current configuration".
// Scenario facts are clamped into their domains and non-finite KPIs are
// pinned to finite values, so the fact document always encodes.
func (e *Engine) Propose(kpi models.KPIResult, cfg models.ScenarioConfig) []models.RecommendedAction {
	cfg = cfg.Normalize()
	facts, err := json.Marshal(factDocument(kpi, cfg))
	if err != nil {
		e.logger.Error("failed to encode rule facts", "error", err)
		return []models.RecommendedAction{}
	}

	actions := make([]models.RecommendedAction, 0, len(e.rules))
	for _, r := range e.rules {
		fired, err := evaluate(r.logic, facts)
		if err != nil {
			e.logger.Warn("rule condition could not be evaluated", "rule_id", r.ID, "error", err)
			continue
		}
		e.logger.Debug("rule evaluated", "rule_id", r.ID, "fired", fired)
		if fired {
			actions = append(actions, r.action())
		}
	}
	return actions
}

func (r compiledRule) action() models.RecommendedAction {
	deltas := append([]models.Delta(nil), r.Apply...)
	return models.RecommendedAction{
		ID:      r.ID,
		Title:   r.Title,
		Detail:  r.Detail,
		Impact:  r.Impact,
		Changes: deltas,
		Apply: func(c models.ScenarioConfig) models.ScenarioConfig {
			next, err := models.ApplyDeltas(c, deltas)
			if err != nil {
				// deltas were validated when the rule was compiled
				return c
			}
			return next
		},
	}
}

func evaluate(logic, facts []byte) (bool, error) {
	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(logic), bytes.NewReader(facts), &out); err != nil {
		return false, err
	}
	var result any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return false, fmt.Errorf("decode rule result: %w", err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition must return a boolean, got %v", result)
	}
	return b, nil
}

func factDocument(kpi models.KPIResult, cfg models.ScenarioConfig) map[string]any {
	return map[string]any{
		"kpi": map[string]any{
			"on_time_rate":        finiteFact(kpi.OnTimeRate),
			"late_rate":           finiteFact(kpi.LateRate),
			"orders":              finiteFact(kpi.Orders),
			"avoided_cost":        finiteFact(kpi.AvoidedCost),
			"conversion_rate":     finiteFact(kpi.ConversionRate),
			"conversion_lift_pts": finiteFact(kpi.ConversionLiftPts),
			"cost_per_order":      finiteFact(kpi.CostPerOrder),
		},
		"scenario": map[string]any{
			models.FieldSurge:         cfg.Surge,
			models.FieldWeather:       cfg.Weather,
			models.FieldMemberMix:     cfg.MemberMix,
			models.FieldPolicy:        string(cfg.Policy),
			models.FieldUPSDelta:      cfg.UPSDelta,
			models.FieldFedExDelta:    cfg.FedExDelta,
			models.FieldCrowdBoost:    cfg.CrowdBoost,
			models.FieldMemberReserve: cfg.MemberReserve,
			models.FieldRebalance:     cfg.Rebalance,
		},
	}
}

// finiteFact maps NaN to 0 and infinities to the largest finite float
func finiteFact(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// ProposeActions runs the built-in rule table
func ProposeActions(kpi models.KPIResult, cfg models.ScenarioConfig) []models.RecommendedAction {
	return Default().Propose(kpi, cfg)
}

// ApplyAll folds every action's Apply over cfg in list order
func ApplyAll(cfg models.ScenarioConfig, actions []models.RecommendedAction) models.ScenarioConfig {
	for _, a := range actions {
		if a.Apply != nil {
			cfg = a.Apply(cfg)
		}
	}
	return cfg
}
