package models

import (
	"errors"
	"math"
	"testing"
)

func TestFacilityKindValid(t *testing.T) {
	for _, k := range []FacilityKind{FacilityMicroFulfillment, FacilityRegionalCenter, FacilityStore} {
		if !k.Valid() {
			t.Errorf("expected %s to be valid", k)
		}
	}
	if FacilityKind("Warehouse").Valid() {
		t.Error("expected unknown kind to be invalid")
	}
}

func TestDefaultScenarioIsValid(t *testing.T) {
	cfg := DefaultScenario()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default scenario should validate: %v", err)
	}
	if cfg.Normalize() != cfg {
		t.Fatalf("normalizing the default scenario should be a no-op")
	}
}

func TestScenarioNormalize(t *testing.T) {
	cfg := ScenarioConfig{
		Surge:      3,
		Weather:    -1,
		MemberMix:  math.NaN(),
		Policy:     "Reckless",
		UPSDelta:   -0.9,
		FedExDelta: 0.9,
		CrowdBoost: 2,
		Rebalance:  -0.1,
	}
	got := cfg.Normalize()

	if got.Surge != MaxSurge {
		t.Errorf("surge = %v, want %v", got.Surge, MaxSurge)
	}
	if got.Weather != 0 {
		t.Errorf("weather = %v, want 0", got.Weather)
	}
	if got.MemberMix != 0 {
		t.Errorf("NaN member mix should clamp to 0, got %v", got.MemberMix)
	}
	if got.Policy != PolicyBalanced {
		t.Errorf("policy = %q, want Balanced", got.Policy)
	}
	if got.UPSDelta != MinCarrierDelta || got.FedExDelta != MaxCarrierDelta {
		t.Errorf("carrier deltas = %v/%v", got.UPSDelta, got.FedExDelta)
	}
	if got.CrowdBoost != MaxCrowdBoost {
		t.Errorf("crowd boost = %v", got.CrowdBoost)
	}
	if got.Rebalance != 0 {
		t.Errorf("rebalance = %v", got.Rebalance)
	}
	// the receiver is untouched
	if cfg.Surge != 3 {
		t.Errorf("Normalize modified its receiver")
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScenarioConfig)
	}{
		{"surge too high", func(c *ScenarioConfig) { c.Surge = 1.5 }},
		{"negative weather", func(c *ScenarioConfig) { c.Weather = -0.1 }},
		{"NaN rebalance", func(c *ScenarioConfig) { c.Rebalance = math.NaN() }},
		{"unknown policy", func(c *ScenarioConfig) { c.Policy = "Fast" }},
		{"crowd boost too high", func(c *ScenarioConfig) { c.CrowdBoost = 0.6 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScenario()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDeltaApply(t *testing.T) {
	max := 0.5
	min := 0.0
	base := DefaultScenario()

	tests := []struct {
		name  string
		delta Delta
		check func(ScenarioConfig) bool
	}{
		{
			name:  "set policy",
			delta: Delta{Field: FieldPolicy, Op: OpSet, Value: "Reliable"},
			check: func(c ScenarioConfig) bool { return c.Policy == PolicyReliable },
		},
		{
			name:  "set member reserve",
			delta: Delta{Field: FieldMemberReserve, Op: OpSet, Value: false},
			check: func(c ScenarioConfig) bool { return !c.MemberReserve },
		},
		{
			name:  "add with clamp",
			delta: Delta{Field: FieldCrowdBoost, Op: OpAdd, Value: 0.45, Min: &min, Max: &max},
			check: func(c ScenarioConfig) bool { return c.CrowdBoost == 0.5 },
		},
		{
			name:  "add integer value",
			delta: Delta{Field: FieldSurge, Op: OpAdd, Value: 1},
			check: func(c ScenarioConfig) bool { return math.Abs(c.Surge-1.35) < 1e-12 },
		},
		{
			name:  "set numeric",
			delta: Delta{Field: FieldUPSDelta, Op: OpSet, Value: -0.2},
			check: func(c ScenarioConfig) bool { return c.UPSDelta == -0.2 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.delta.Apply(base)
			if err != nil {
				t.Fatalf("Apply error: %v", err)
			}
			if !tt.check(got) {
				t.Fatalf("unexpected result: %+v", got)
			}
		})
	}

	if base != DefaultScenario() {
		t.Fatalf("Apply modified the input scenario")
	}
}

func TestDeltaApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		delta Delta
		want  error
	}{
		{"unknown field", Delta{Field: "speed", Op: OpSet, Value: 1.0}, ErrUnknownField},
		{"unknown op", Delta{Field: FieldSurge, Op: "multiply", Value: 2.0}, ErrUnknownOp},
		{"add to policy", Delta{Field: FieldPolicy, Op: OpAdd, Value: "Reliable"}, ErrInvalidValue},
		{"bad policy", Delta{Field: FieldPolicy, Op: OpSet, Value: "Fast"}, ErrInvalidValue},
		{"string for number", Delta{Field: FieldSurge, Op: OpSet, Value: "high"}, ErrInvalidValue},
		{"number for bool", Delta{Field: FieldMemberReserve, Op: OpSet, Value: 1.0}, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.delta.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyDeltasInOrder(t *testing.T) {
	deltas := []Delta{
		{Field: FieldRebalance, Op: OpSet, Value: 0.1},
		{Field: FieldRebalance, Op: OpAdd, Value: 0.2},
	}
	got, err := ApplyDeltas(ScenarioConfig{}, deltas)
	if err != nil {
		t.Fatalf("ApplyDeltas error: %v", err)
	}
	if math.Abs(got.Rebalance-0.3) > 1e-12 {
		t.Fatalf("rebalance = %v, want 0.3", got.Rebalance)
	}

	_, err = ApplyDeltas(ScenarioConfig{}, []Delta{{Field: "nope", Op: OpSet, Value: 1.0}})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
