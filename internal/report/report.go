package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/compare"
	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

// WriteEvaluation writes the scenario, KPIs, hourly buckets and
// recommendations of ev
func WriteEvaluation(w io.Writer, ev *pipeline.Evaluation) error {
	if ev == nil {
		return fmt.Errorf("evaluation is nil")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Evaluation %s (%s)\n\n", ev.ID, ev.EvaluatedAt.UTC().Format(time.RFC3339))
	writeScenario(tw, ev.Scenario)
	fmt.Fprintln(tw)
	writeKPIs(tw, ev.KPI)
	fmt.Fprintln(tw)
	writeBuckets(tw, ev.KPI.Buckets)
	fmt.Fprintln(tw)
	writeActions(tw, ev.Actions)

	return tw.Flush()
}

// WritePreview writes the before/after comparison of a preview
func WritePreview(w io.Writer, p *pipeline.Preview) error {
	if p == nil || p.Before == nil || p.After == nil || p.Comparison == nil {
		return fmt.Errorf("preview is incomplete")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	before, after, cmp := p.Before.KPI, p.After.KPI, p.Comparison

	fmt.Fprintf(tw, "Preview: applying %d recommended action(s)\n\n", len(p.Before.Actions))
	fmt.Fprintln(tw, "Metric\tBefore\tAfter\tChange")
	fmt.Fprintf(tw, "On-time rate\t%s\t%s\t%s\n", Percent(before.OnTimeRate, 1), Percent(after.OnTimeRate, 1), SignedPercent(cmp.OnTimeRateDiff))
	fmt.Fprintf(tw, "Late rate\t%s\t%s\t%s\n", Percent(before.LateRate, 1), Percent(after.LateRate, 1), SignedPercent(cmp.LateRateDiff))
	fmt.Fprintf(tw, "Conversion\t%s\t%s\t%s\n", Percent(before.ConversionRate, 2), Percent(after.ConversionRate, 2), SignedPercent(cmp.ConversionRateDiff))
	fmt.Fprintf(tw, "Cost per order\t%s\t%s\t%s\n", Currency(before.CostPerOrder), Currency(after.CostPerOrder), SignedCurrency(cmp.CostPerOrderDiff))
	fmt.Fprintf(tw, "Avoided cost\t%s\t%s\t%s\n", Currency(before.AvoidedCost), Currency(after.AvoidedCost), SignedCurrency(cmp.AvoidedCostDiff))

	verdict := "no improvement"
	if cmp.Improvement {
		verdict = "improved"
	}
	fmt.Fprintf(tw, "\nObjective %s: %s\n", cmp.Objective, verdict)

	return tw.Flush()
}

// WriteHistory writes a scored sequence of evaluations, such as a story run
func WriteHistory(w io.Writer, h *compare.HistoryComparison) error {
	if h == nil {
		return fmt.Errorf("history is nil")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Objective %s\n\n", h.Objective)
	fmt.Fprintln(tw, "#\tStep\tOn-time\tCost/order\tConversion")
	for i, e := range h.Entries {
		if e.KPI == nil {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, e.Label, Percent(e.KPI.OnTimeRate, 1), Currency(e.KPI.CostPerOrder), Percent(e.KPI.ConversionRate, 2))
	}
	fmt.Fprintf(tw, "\nBest: %s\nWorst: %s\nTrend: %s\n", h.BestLabel, h.WorstLabel, h.Trend)

	return tw.Flush()
}

func writeScenario(tw *tabwriter.Writer, c models.ScenarioConfig) {
	fmt.Fprintln(tw, "Scenario")
	fmt.Fprintf(tw, "  Demand surge\t%s\n", Percent(c.Surge, 0))
	fmt.Fprintf(tw, "  Weather index\t%s\n", fmtFixed(c.Weather, 2))
	fmt.Fprintf(tw, "  Member mix\t%s\n", Percent(c.MemberMix, 0))
	fmt.Fprintf(tw, "  Policy\t%s\n", c.Policy)
	fmt.Fprintf(tw, "  UPS capacity\t%s\n", signedPercent0(c.UPSDelta))
	fmt.Fprintf(tw, "  FedEx capacity\t%s\n", signedPercent0(c.FedExDelta))
	fmt.Fprintf(tw, "  Crowd boost\t%s\n", signedPercent0(c.CrowdBoost))
	fmt.Fprintf(tw, "  Member reserve\t%t\n", c.MemberReserve)
	fmt.Fprintf(tw, "  Rebalance\t%s\n", Percent(c.Rebalance, 0))
}

func writeKPIs(tw *tabwriter.Writer, k models.KPIResult) {
	fmt.Fprintln(tw, "KPIs")
	fmt.Fprintf(tw, "  On-time rate\t%s\n", Percent(k.OnTimeRate, 1))
	fmt.Fprintf(tw, "  Late rate\t%s\n", Percent(k.LateRate, 1))
	fmt.Fprintf(tw, "  Orders\t%s\n", Count(k.Orders))
	fmt.Fprintf(tw, "  Conversion\t%s (%s)\n", Percent(k.ConversionRate, 2), Points(k.ConversionLiftPts))
	fmt.Fprintf(tw, "  Cost per order\t%s\n", Currency(k.CostPerOrder))
	fmt.Fprintf(tw, "  Avoided cost\t%s\n", Currency(k.AvoidedCost))
}

func writeBuckets(tw *tabwriter.Writer, buckets []models.BucketKPI) {
	fmt.Fprintln(tw, "Hour\tDemand\tCapacity\tOn-time")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%02d:00\t%s\t%s\t%s\n", b.Hour, Count(b.Demand), Count(b.Capacity), Percent(b.OnTime, 1))
	}
}

func writeActions(tw *tabwriter.Writer, actions []models.RecommendedAction) {
	fmt.Fprintln(tw, "Recommended actions")
	if len(actions) == 0 {
		fmt.Fprintln(tw, "  none: hold the current configuration")
		return
	}
	for i, a := range actions {
		fmt.Fprintf(tw, "  %d. %s [%s]\n", i+1, a.Title, a.ID)
		if a.Detail != "" {
			fmt.Fprintf(tw, "     %s\n", a.Detail)
		}
		if a.Impact != "" {
			fmt.Fprintf(tw, "     Impact: %s\n", a.Impact)
		}
	}
}

func signedPercent0(v float64) string {
	s := Percent(v, 0)
	if v > 0 {
		return "+" + s
	}
	return s
}
