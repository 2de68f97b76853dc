package compare

import "github.com/GoSim-25-26J-441/promise-core/pkg/models"

// ObjectiveFunction scores a KPI result.
// Lower scores are better; maximization objectives negate their value.
type ObjectiveFunction interface {
	// Evaluate computes the objective value from a KPI result.
	Evaluate(kpi *models.KPIResult) (float64, error)

	// Name returns the name of the objective function.
	Name() string

	// Direction returns whether we're minimizing (true) or maximizing (false).
	Direction() bool
}

// ObjectiveType represents the type of objective function
type ObjectiveType string

const (
	// ObjectiveMaximizeOnTime maximizes the on-time delivery rate
	ObjectiveMaximizeOnTime ObjectiveType = "on_time_rate"
	// ObjectiveMinimizeCost minimizes the blended cost per order
	ObjectiveMinimizeCost ObjectiveType = "cost_per_order"
	// ObjectiveMaximizeConversion maximizes the conversion rate
	ObjectiveMaximizeConversion ObjectiveType = "conversion_rate"
	// ObjectiveMaximizeAvoidedCost maximizes cost avoided versus the baseline late rate
	ObjectiveMaximizeAvoidedCost ObjectiveType = "avoided_cost"
	// ObjectiveMinimizeLateRate minimizes the late rate
	ObjectiveMinimizeLateRate ObjectiveType = "late_rate"
)

// ObjectiveTypes lists every supported objective
func ObjectiveTypes() []ObjectiveType {
	return []ObjectiveType{
		ObjectiveMaximizeOnTime,
		ObjectiveMinimizeCost,
		ObjectiveMaximizeConversion,
		ObjectiveMaximizeAvoidedCost,
		ObjectiveMinimizeLateRate,
	}
}

// NewObjectiveFunction creates an objective function from a type string
func NewObjectiveFunction(objType string) (ObjectiveFunction, error) {
	switch ObjectiveType(objType) {
	case ObjectiveMaximizeOnTime:
		return &metricObjective{name: ObjectiveMaximizeOnTime, value: func(k *models.KPIResult) float64 { return k.OnTimeRate }}, nil
	case ObjectiveMinimizeCost:
		return &metricObjective{name: ObjectiveMinimizeCost, minimize: true, value: func(k *models.KPIResult) float64 { return k.CostPerOrder }}, nil
	case ObjectiveMaximizeConversion:
		return &metricObjective{name: ObjectiveMaximizeConversion, value: func(k *models.KPIResult) float64 { return k.ConversionRate }}, nil
	case ObjectiveMaximizeAvoidedCost:
		return &metricObjective{name: ObjectiveMaximizeAvoidedCost, value: func(k *models.KPIResult) float64 { return k.AvoidedCost }}, nil
	case ObjectiveMinimizeLateRate:
		return &metricObjective{name: ObjectiveMinimizeLateRate, minimize: true, value: func(k *models.KPIResult) float64 { return k.LateRate }}, nil
	default:
		return nil, &UnknownObjectiveError{ObjectiveType: objType}
	}
}

type metricObjective struct {
	name     ObjectiveType
	minimize bool
	value    func(*models.KPIResult) float64
}

func (o *metricObjective) Name() string {
	return string(o.name)
}

func (o *metricObjective) Direction() bool {
	return o.minimize
}

func (o *metricObjective) Evaluate(kpi *models.KPIResult) (float64, error) {
	if kpi == nil {
		return 0, &InvalidKPIError{Reason: "kpi is nil"}
	}
	v := o.value(kpi)
	if o.minimize {
		return v, nil
	}
	return -v, nil
}

// UnknownObjectiveError indicates an unknown objective type
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective type: " + e.ObjectiveType
}

// InvalidKPIError indicates a KPI result that cannot be scored
type InvalidKPIError struct {
	Reason string
}

func (e *InvalidKPIError) Error() string {
	return "invalid kpi: " + e.Reason
}
