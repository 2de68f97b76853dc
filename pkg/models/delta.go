package models

import (
	"errors"
	"fmt"
	"math"
)

// Scenario field names addressable by a Delta
const (
	FieldSurge         = "surge"
	FieldWeather       = "weather"
	FieldMemberMix     = "member_mix"
	FieldPolicy        = "policy"
	FieldUPSDelta      = "ups_delta"
	FieldFedExDelta    = "fedex_delta"
	FieldCrowdBoost    = "crowd_boost"
	FieldMemberReserve = "member_reserve"
	FieldRebalance     = "rebalance"
)

// DeltaOp is the operation a Delta performs on its field
type DeltaOp string

const (
	OpSet DeltaOp = "set"
	OpAdd DeltaOp = "add"
)

var (
	ErrUnknownField = errors.New("unknown scenario field")
	ErrUnknownOp    = errors.New("unknown delta op")
	ErrInvalidValue = errors.New("invalid delta value")
)

// Delta is a declarative change to one ScenarioConfig field.
// Min and Max clamp the numeric result when set.
type Delta struct {
	Field string   `json:"field" yaml:"field"`
	Op    DeltaOp  `json:"op" yaml:"op"`
	Value any      `json:"value" yaml:"value"`
	Min   *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Validate checks the delta against a zero scenario
func (d Delta) Validate() error {
	_, err := d.Apply(ScenarioConfig{Policy: PolicyBalanced})
	return err
}

// Apply returns c with the delta applied. c itself is never modified.
func (d Delta) Apply(c ScenarioConfig) (ScenarioConfig, error) {
	if d.Op != OpSet && d.Op != OpAdd {
		return c, fmt.Errorf("%w: %q", ErrUnknownOp, d.Op)
	}

	switch d.Field {
	case FieldPolicy:
		if d.Op != OpSet {
			return c, fmt.Errorf("%w: %s only supports set", ErrInvalidValue, d.Field)
		}
		s, ok := d.Value.(string)
		if !ok || !Policy(s).Valid() {
			return c, fmt.Errorf("%w: policy %v", ErrInvalidValue, d.Value)
		}
		c.Policy = Policy(s)
		return c, nil

	case FieldMemberReserve:
		if d.Op != OpSet {
			return c, fmt.Errorf("%w: %s only supports set", ErrInvalidValue, d.Field)
		}
		b, ok := d.Value.(bool)
		if !ok {
			return c, fmt.Errorf("%w: %s expects a boolean, got %v", ErrInvalidValue, d.Field, d.Value)
		}
		c.MemberReserve = b
		return c, nil
	}

	ptr := numericField(&c, d.Field)
	if ptr == nil {
		return c, fmt.Errorf("%w: %q", ErrUnknownField, d.Field)
	}
	v, ok := toFloat(d.Value)
	if !ok {
		return c, fmt.Errorf("%w: %s expects a number, got %v", ErrInvalidValue, d.Field, d.Value)
	}

	next := v
	if d.Op == OpAdd {
		next = *ptr + v
	}
	if d.Min != nil && next < *d.Min {
		next = *d.Min
	}
	if d.Max != nil && next > *d.Max {
		next = *d.Max
	}
	*ptr = next
	return c, nil
}

// ApplyDeltas applies deltas in order and stops at the first error
func ApplyDeltas(c ScenarioConfig, deltas []Delta) (ScenarioConfig, error) {
	for i, d := range deltas {
		next, err := d.Apply(c)
		if err != nil {
			return c, fmt.Errorf("delta %d (%s): %w", i, d.Field, err)
		}
		c = next
	}
	return c, nil
}

func numericField(c *ScenarioConfig, field string) *float64 {
	switch field {
	case FieldSurge:
		return &c.Surge
	case FieldWeather:
		return &c.Weather
	case FieldMemberMix:
		return &c.MemberMix
	case FieldUPSDelta:
		return &c.UPSDelta
	case FieldFedExDelta:
		return &c.FedExDelta
	case FieldCrowdBoost:
		return &c.CrowdBoost
	case FieldRebalance:
		return &c.Rebalance
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint64:
		f = float64(t)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
