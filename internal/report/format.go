// Package report renders evaluations as plain-text reports.
package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Currency formats v as dollars with two decimals and thousands separators
func Currency(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "$" + group(d.StringFixed(2))
}

// Count formats v as a whole number with thousands separators
func Count(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + group(d.StringFixed(0))
}

// Percent formats a rate in [0,1] as a percentage
func Percent(rate float64, places int32) string {
	return decimal.NewFromFloat(rate).Mul(hundred).StringFixed(places) + "%"
}

// Points formats a signed percentage-point change
func Points(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2)
	if d.IsPositive() {
		s = "+" + s
	}
	return s + " pts"
}

// SignedPercent formats a signed rate change in percentage points
func SignedPercent(delta float64) string {
	return Points(delta * 100)
}

// SignedCurrency formats a signed dollar change
func SignedCurrency(delta float64) string {
	s := Currency(delta)
	if decimal.NewFromFloat(delta).Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

// group inserts thousands separators into an unsigned fixed-point string
func group(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func fmtFixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
