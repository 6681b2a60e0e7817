// Package pricing computes what a payer owes for a payable.
//
// Resolution happens in two stages. The base price comes from the payable and
// its restriction layers and is a pure function of its inputs. The personal
// stage then applies either the payer's reduction or the sibling discount.
// Arithmetic is unrounded until the returned boundary, where Round applies
// the single two-decimal policy.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"enroll/internal/payable"
	id "enroll/pkg/domain"
)

// Places is the canonical monetary precision.
const Places = 2

// Round applies the canonical precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ResolveBasePrice runs the layered membership rule for a period price, its
// restrictions in declaration order, the member's branch and an evaluation date.
//
// Without branch restrictions the latest started time window across all
// restrictions wins. With branch restrictions only their time windows are
// searched, then the first branch restriction without a window. Either path
// ends at the period price.
func ResolveBasePrice(base decimal.Decimal, restrictions []payable.Restriction, branch id.BranchID, at time.Time) decimal.Decimal {
	var forBranch []payable.Restriction
	for _, r := range restrictions {
		if r.TargetsBranch(branch) {
			forBranch = append(forBranch, r)
		}
	}

	if len(forBranch) == 0 {
		if r, ok := latestWindow(restrictions, at); ok && r.AlternativePrice != nil {
			return *r.AlternativePrice
		}
		return base
	}

	if r, ok := latestWindow(forBranch, at); ok && r.AlternativePrice != nil {
		return *r.AlternativePrice
	}
	for _, r := range forBranch {
		if r.IsTimeWindowed() {
			continue
		}
		if r.AlternativePrice != nil {
			return *r.AlternativePrice
		}
		break
	}
	return base
}

// ResolveRestrictionPrice is the event and activity rule: the chosen
// restriction's alternative price, else the payable price.
func ResolveRestrictionPrice(base decimal.Decimal, chosen *payable.Restriction) decimal.Decimal {
	if chosen != nil && chosen.AlternativePrice != nil {
		return *chosen.AlternativePrice
	}
	return base
}

// latestWindow picks the restriction whose window started most recently at
// or before at. Equal starts keep the earlier declared restriction.
func latestWindow(restrictions []payable.Restriction, at time.Time) (payable.Restriction, bool) {
	var (
		best  payable.Restriction
		found bool
	)
	for _, r := range restrictions {
		if !r.WindowOpenAt(at) {
			continue
		}
		if !found || r.AlternativeStart.After(*best.AlternativeStart) {
			best, found = r, true
		}
	}
	return best, found
}
