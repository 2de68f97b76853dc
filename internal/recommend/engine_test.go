package recommend

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/GoSim-25-26J-441/promise-core/internal/kpi"
	"github.com/GoSim-25-26J-441/promise-core/pkg/config"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

func ids(actions []models.RecommendedAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.ID)
	}
	return out
}

func TestProposeActionsTriggers(t *testing.T) {
	calm := models.ScenarioConfig{Policy: models.PolicyBalanced}

	tests := []struct {
		name string
		otd  float64
		cfg  func() models.ScenarioConfig
		want []string
	}{
		{
			name: "everything stressed",
			otd:  0.9,
			cfg: func() models.ScenarioConfig {
				c := calm
				c.Surge = 0.5
				c.UPSDelta = -0.1
				return c
			},
			want: []string{"tighten-promise", "rebalance-nodes", "boost-crowd"},
		},
		{
			name: "hold",
			otd:  0.96,
			cfg:  func() models.ScenarioConfig { return calm },
			want: []string{},
		},
		{
			name: "on-time exactly at promise target",
			otd:  0.95,
			cfg:  func() models.ScenarioConfig { return calm },
			want: []string{},
		},
		{
			name: "comfortably above target",
			otd:  0.97,
			cfg:  func() models.ScenarioConfig { return calm },
			want: []string{"optimize-cost"},
		},
		{
			name: "surge at threshold does not fire",
			otd:  0.96,
			cfg: func() models.ScenarioConfig {
				c := calm
				c.Surge = 0.25
				return c
			},
			want: []string{},
		},
		{
			name: "fedex shortfall",
			otd:  0.96,
			cfg: func() models.ScenarioConfig {
				c := calm
				c.FedExDelta = -0.06
				return c
			},
			want: []string{"boost-crowd"},
		},
		{
			name: "ups shortfall at threshold does not fire",
			otd:  0.96,
			cfg: func() models.ScenarioConfig {
				c := calm
				c.UPSDelta = -0.05
				return c
			},
			want: []string{},
		},
		{
			name: "surge with high on-time",
			otd:  0.99,
			cfg: func() models.ScenarioConfig {
				c := calm
				c.Surge = 0.8
				return c
			},
			want: []string{"rebalance-nodes", "optimize-cost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProposeActions(models.KPIResult{OnTimeRate: tt.otd, LateRate: 1 - tt.otd}, tt.cfg())
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Fatalf("actions = %v, want %v", ids(got), tt.want)
			}
			for _, a := range got {
				if a.Title == "" || a.Detail == "" || a.Impact == "" {
					t.Errorf("action %s is missing display text", a.ID)
				}
				if a.Apply == nil || len(a.Changes) == 0 {
					t.Errorf("action %s has no changes", a.ID)
				}
			}
		})
	}
}

func TestProposeActionsDefaultScenario(t *testing.T) {
	net := config.DefaultNetwork()
	cfg := models.DefaultScenario()
	result := kpi.ComputeKPIs(cfg, net.Nodes, net.Carriers)

	got := ids(ProposeActions(result, cfg))
	want := []string{"tighten-promise", "rebalance-nodes", "boost-crowd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("default scenario actions = %v, want %v (otd %.4f)", got, want, result.OnTimeRate)
	}
}

func TestProposeActionsNonFiniteInputs(t *testing.T) {
	stressed := models.ScenarioConfig{
		Policy:   models.PolicyBalanced,
		Weather:  math.NaN(),
		Surge:    0.6,
		UPSDelta: -0.2,
	}
	want := []string{"tighten-promise", "rebalance-nodes", "boost-crowd"}
	if got := ids(ProposeActions(models.KPIResult{OnTimeRate: 0.93}, stressed)); !reflect.DeepEqual(got, want) {
		t.Fatalf("NaN weather: actions = %v, want %v", got, want)
	}

	infSurge := models.ScenarioConfig{Policy: models.PolicyBalanced, Surge: math.Inf(1)}
	if got := ids(ProposeActions(models.KPIResult{OnTimeRate: 0.96}, infSurge)); !reflect.DeepEqual(got, []string{"rebalance-nodes"}) {
		t.Fatalf("infinite surge: actions = %v, want [rebalance-nodes]", got)
	}

	nanKPI := models.KPIResult{OnTimeRate: math.NaN(), CostPerOrder: math.Inf(1), AvoidedCost: math.Inf(-1)}
	calm := models.ScenarioConfig{Policy: models.PolicyBalanced}
	if got := ids(ProposeActions(nanKPI, calm)); !reflect.DeepEqual(got, []string{"tighten-promise"}) {
		t.Fatalf("NaN on-time rate: actions = %v, want [tighten-promise]", got)
	}
}

func TestProposeActionsDeterministic(t *testing.T) {
	cfg := models.DefaultScenario()
	k := models.KPIResult{OnTimeRate: 0.91}
	a := ids(ProposeActions(k, cfg))
	for i := 0; i < 10; i++ {
		if b := ids(ProposeActions(k, cfg)); !reflect.DeepEqual(a, b) {
			t.Fatalf("run %d: %v != %v", i, b, a)
		}
	}
}

func TestTightenPromiseIsIdempotent(t *testing.T) {
	actions := ProposeActions(models.KPIResult{OnTimeRate: 0.8}, models.ScenarioConfig{Policy: models.PolicyAggressive})
	if len(actions) != 1 || actions[0].ID != "tighten-promise" {
		t.Fatalf("unexpected actions: %v", ids(actions))
	}
	once := actions[0].Apply(models.ScenarioConfig{Policy: models.PolicyAggressive})
	twice := actions[0].Apply(once)
	if once != twice {
		t.Fatalf("re-applying changed the scenario: %+v -> %+v", once, twice)
	}
	if once.Policy != models.PolicyReliable || !once.MemberReserve {
		t.Fatalf("unexpected result: %+v", once)
	}
}

func TestAdditiveActionsClamp(t *testing.T) {
	cfg := models.ScenarioConfig{Policy: models.PolicyBalanced, Surge: 0.6, UPSDelta: -0.2}
	actions := ProposeActions(models.KPIResult{OnTimeRate: 0.96}, cfg)
	if !reflect.DeepEqual(ids(actions), []string{"rebalance-nodes", "boost-crowd"}) {
		t.Fatalf("unexpected actions: %v", ids(actions))
	}

	cur := cfg
	wantRebalance := []float64{0.2, 0.4, 0.5, 0.5}
	wantCrowd := []float64{0.15, 0.3, 0.45, 0.5}
	for i := range wantRebalance {
		cur = ApplyAll(cur, actions)
		if math.Abs(cur.Rebalance-wantRebalance[i]) > 1e-9 {
			t.Errorf("step %d: rebalance = %v, want %v", i, cur.Rebalance, wantRebalance[i])
		}
		if math.Abs(cur.CrowdBoost-wantCrowd[i]) > 1e-9 {
			t.Errorf("step %d: crowd boost = %v, want %v", i, cur.CrowdBoost, wantCrowd[i])
		}
	}
	if cfg.Rebalance != 0 || cfg.CrowdBoost != 0 {
		t.Fatalf("ApplyAll modified its input")
	}
}

func TestApplyAllOrder(t *testing.T) {
	set := func(p models.Policy) models.RecommendedAction {
		return models.RecommendedAction{ID: string(p), Apply: func(c models.ScenarioConfig) models.ScenarioConfig {
			c.Policy = p
			return c
		}}
	}
	got := ApplyAll(models.DefaultScenario(), []models.RecommendedAction{
		set(models.PolicyReliable),
		{ID: "no-op"},
		set(models.PolicyAggressive),
	})
	if got.Policy != models.PolicyAggressive {
		t.Fatalf("last action should win, got %s", got.Policy)
	}
	if ApplyAll(models.DefaultScenario(), nil) != models.DefaultScenario() {
		t.Fatalf("empty action list should leave the scenario unchanged")
	}
}

func TestDefaultRules(t *testing.T) {
	rules := Default().Rules()
	want := []string{"tighten-promise", "rebalance-nodes", "boost-crowd", "optimize-cost"}
	got := make([]string, 0, len(rules))
	for _, r := range rules {
		got = append(got, r.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rule order = %v, want %v", got, want)
	}

	// callers cannot reach the engine's copy
	rules[0].Apply[0].Field = "mutated"
	if Default().Rules()[0].Apply[0].Field != models.FieldPolicy {
		t.Fatalf("Rules leaked internal state")
	}
}

func TestNewEngineErrors(t *testing.T) {
	valid := func() Rule {
		return Rule{
			ID:    "r1",
			Title: "Rule",
			When:  map[string]any{"<": []any{map[string]any{"var": "kpi.on_time_rate"}, 0.9}},
			Apply: []models.Delta{{Field: models.FieldPolicy, Op: models.OpSet, Value: "Reliable"}},
		}
	}

	tests := []struct {
		name  string
		rules func() []Rule
	}{
		{"no rules", func() []Rule { return nil }},
		{"duplicate id", func() []Rule { return []Rule{valid(), valid()} }},
		{"empty id", func() []Rule { r := valid(); r.ID = ""; return []Rule{r} }},
		{"empty title", func() []Rule { r := valid(); r.Title = ""; return []Rule{r} }},
		{"empty when", func() []Rule { r := valid(); r.When = nil; return []Rule{r} }},
		{"no changes", func() []Rule { r := valid(); r.Apply = nil; return []Rule{r} }},
		{"unknown operator", func() []Rule {
			r := valid()
			r.When = map[string]any{"frobnicate": []any{1, 2}}
			return []Rule{r}
		}},
		{"unknown field", func() []Rule {
			r := valid()
			r.Apply = []models.Delta{{Field: "speed", Op: models.OpSet, Value: 1.0}}
			return []Rule{r}
		}},
		{"unknown op", func() []Rule {
			r := valid()
			r.Apply = []models.Delta{{Field: models.FieldSurge, Op: "scale", Value: 1.0}}
			return []Rule{r}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(tt.rules()); !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("expected ErrInvalidRule, got %v", err)
			}
		})
	}

	if _, err := NewEngine([]Rule{valid()}); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
}

func TestNonBooleanConditionDoesNotFire(t *testing.T) {
	e, err := NewEngine([]Rule{{
		ID:    "numeric",
		Title: "Numeric condition",
		When:  map[string]any{"var": "kpi.on_time_rate"},
		Apply: []models.Delta{{Field: models.FieldSurge, Op: models.OpSet, Value: 0.0}},
	}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.SetLogger(logger.New("error", io.Discard))

	if got := e.Propose(models.KPIResult{OnTimeRate: 0.9}, models.DefaultScenario()); len(got) != 0 {
		t.Fatalf("expected no actions, got %v", ids(got))
	}
}

func TestParseAndLoadRules(t *testing.T) {
	data := `
rules:
  - id: weather-watch
    title: Pre-position for weather
    detail: Heavy weather expected.
    impact: small
    when: {">": [{"var": "scenario.weather"}, 0.5]}
    apply:
      - {field: crowd_boost, op: add, value: 0.1, max: 0.5}
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	cfg := models.ScenarioConfig{Policy: models.PolicyBalanced, Weather: 0.7}
	got := e.Propose(models.KPIResult{OnTimeRate: 0.96}, cfg)
	if len(got) != 1 || got[0].ID != "weather-watch" {
		t.Fatalf("unexpected actions: %v", ids(got))
	}
	if next := got[0].Apply(cfg); math.Abs(next.CrowdBoost-0.1) > 1e-12 {
		t.Fatalf("crowd boost = %v", next.CrowdBoost)
	}

	if e, err := LoadRules(""); err != nil || e != Default() {
		t.Fatalf("empty path should return the default engine: %v", err)
	}
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := ParseRules([]byte("rules: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
