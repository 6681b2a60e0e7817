package pricing

import (
	"github.com/shopspring/decimal"
)

// Reduction carries the per-payable discount settings.
type Reduction struct {
	// Factor divides the price for payers with a personal reduction. Zero or
	// negative disables the division.
	Factor decimal.Decimal `json:"reduction_factor"`
	// Sibling is subtracted when a sibling without reduction is already enrolled.
	Sibling decimal.Decimal `json:"sibling_reduction"`
}

// Rule names which personal adjustment was applied.
type Rule string

const (
	RuleNone      Rule = "none"
	RuleReduction Rule = "reduction"
	RuleSibling   Rule = "sibling"
)

// Adjust applies the personal stage. The reduction takes priority over the
// sibling discount, and the sibling discount never goes below zero.
func Adjust(base decimal.Decimal, red Reduction, hasReduction, siblingEnrolled bool) (decimal.Decimal, Rule) {
	switch {
	case hasReduction:
		if red.Factor.LessThanOrEqual(decimal.Zero) {
			return base, RuleNone
		}
		return base.Div(red.Factor), RuleReduction
	case siblingEnrolled:
		return decimal.Max(decimal.Zero, base.Sub(red.Sibling)), RuleSibling
	default:
		return base, RuleNone
	}
}
