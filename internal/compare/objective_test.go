package compare

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

func TestNewObjectiveFunction(t *testing.T) {
	tests := []struct {
		objType  string
		minimize bool
	}{
		{"on_time_rate", false},
		{"cost_per_order", true},
		{"conversion_rate", false},
		{"avoided_cost", false},
		{"late_rate", true},
	}

	for _, tt := range tests {
		t.Run(tt.objType, func(t *testing.T) {
			obj, err := NewObjectiveFunction(tt.objType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if obj.Name() != tt.objType {
				t.Fatalf("expected name %s, got %s", tt.objType, obj.Name())
			}
			if obj.Direction() != tt.minimize {
				t.Fatalf("expected minimize=%v", tt.minimize)
			}
		})
	}

	_, err := NewObjectiveFunction("throughput_rps")
	var unknown *UnknownObjectiveError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownObjectiveError, got %v", err)
	}
	if len(ObjectiveTypes()) != len(tests) {
		t.Fatalf("ObjectiveTypes out of sync")
	}
}

func TestObjectiveEvaluate(t *testing.T) {
	kpi := &models.KPIResult{
		OnTimeRate:     0.93,
		LateRate:       0.07,
		CostPerOrder:   7.84,
		ConversionRate: 0.0255,
		AvoidedCost:    1200,
	}

	tests := []struct {
		objType string
		want    float64
	}{
		{"on_time_rate", -0.93},
		{"cost_per_order", 7.84},
		{"conversion_rate", -0.0255},
		{"avoided_cost", -1200},
		{"late_rate", 0.07},
	}
	for _, tt := range tests {
		t.Run(tt.objType, func(t *testing.T) {
			obj, _ := NewObjectiveFunction(tt.objType)
			score, err := obj.Evaluate(kpi)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if score != tt.want {
				t.Fatalf("expected score %v, got %v", tt.want, score)
			}
			if _, err := obj.Evaluate(nil); err == nil {
				t.Fatalf("expected error for nil kpi")
			}
		})
	}
}
