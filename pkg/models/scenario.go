package models

import (
	"fmt"
	"math"
)

// Policy is the delivery-promise policy
type Policy string

const (
	PolicyAggressive Policy = "Aggressive"
	PolicyBalanced   Policy = "Balanced"
	PolicyReliable   Policy = "Reliable"
)

// Valid reports whether p is a known policy
func (p Policy) Valid() bool {
	switch p {
	case PolicyAggressive, PolicyBalanced, PolicyReliable:
		return true
	}
	return false
}

// Slider domains enforced at the input boundary.
const (
	MaxSurge         = 1.0
	MinCarrierDelta  = -0.5
	MaxCarrierDelta  = 0.5
	MaxCrowdBoost    = 0.5
	MaxRebalance     = 0.5
	MaxWeatherIndex  = 1.0
	MaxMemberMixFrac = 1.0
)

// ScenarioConfig is the "what-if" input to the KPI engine.
// It is a plain value: every change produces a new value.
type ScenarioConfig struct {
	Surge         float64 `json:"surge" yaml:"surge"`
	Weather       float64 `json:"weather" yaml:"weather"`
	MemberMix     float64 `json:"member_mix" yaml:"member_mix"`
	Policy        Policy  `json:"policy" yaml:"policy"`
	UPSDelta      float64 `json:"ups_delta" yaml:"ups_delta"`
	FedExDelta    float64 `json:"fedex_delta" yaml:"fedex_delta"`
	CrowdBoost    float64 `json:"crowd_boost" yaml:"crowd_boost"`
	MemberReserve bool    `json:"member_reserve" yaml:"member_reserve"`
	Rebalance     float64 `json:"rebalance" yaml:"rebalance"`
}

// DefaultScenario returns the scenario loaded at application start
func DefaultScenario() ScenarioConfig {
	return ScenarioConfig{
		Surge:         0.35,
		Weather:       0.2,
		MemberMix:     0.4,
		Policy:        PolicyBalanced,
		UPSDelta:      -0.08,
		FedExDelta:    0,
		CrowdBoost:    0.1,
		MemberReserve: true,
		Rebalance:     0,
	}
}

// Normalize returns a copy with every field clamped into its slider domain.
// NaN becomes the lower bound and an unknown policy becomes Balanced.
func (c ScenarioConfig) Normalize() ScenarioConfig {
	c.Surge = clampField(c.Surge, 0, MaxSurge)
	c.Weather = clampField(c.Weather, 0, MaxWeatherIndex)
	c.MemberMix = clampField(c.MemberMix, 0, MaxMemberMixFrac)
	c.UPSDelta = clampField(c.UPSDelta, MinCarrierDelta, MaxCarrierDelta)
	c.FedExDelta = clampField(c.FedExDelta, MinCarrierDelta, MaxCarrierDelta)
	c.CrowdBoost = clampField(c.CrowdBoost, 0, MaxCrowdBoost)
	c.Rebalance = clampField(c.Rebalance, 0, MaxRebalance)
	if !c.Policy.Valid() {
		c.Policy = PolicyBalanced
	}
	return c
}

// Validate reports the first field outside its domain
func (c ScenarioConfig) Validate() error {
	checks := []struct {
		field    string
		value    float64
		min, max float64
	}{
		{FieldSurge, c.Surge, 0, MaxSurge},
		{FieldWeather, c.Weather, 0, MaxWeatherIndex},
		{FieldMemberMix, c.MemberMix, 0, MaxMemberMixFrac},
		{FieldUPSDelta, c.UPSDelta, MinCarrierDelta, MaxCarrierDelta},
		{FieldFedExDelta, c.FedExDelta, MinCarrierDelta, MaxCarrierDelta},
		{FieldCrowdBoost, c.CrowdBoost, 0, MaxCrowdBoost},
		{FieldRebalance, c.Rebalance, 0, MaxRebalance},
	}
	for _, chk := range checks {
		if math.IsNaN(chk.value) || chk.value < chk.min || chk.value > chk.max {
			return fmt.Errorf("%s must be between %g and %g, got %g", chk.field, chk.min, chk.max, chk.value)
		}
	}
	if !c.Policy.Valid() {
		return fmt.Errorf("invalid policy: %q (must be Aggressive, Balanced, or Reliable)", c.Policy)
	}
	return nil
}

func clampField(v, min, max float64) float64 {
	if math.IsNaN(v) || v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
