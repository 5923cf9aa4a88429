// Package allocation splits one expense total across the assets that bear it.
//
// Three methods are supported: equal, specific and percentage. Every result is
// a fresh AllocationSet in input target order; inputs are never modified.
// Leftover minor units always go to the first targets in that order, so the
// same inputs give the same split.
package allocation

import (
	"fmt"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/shopspring/decimal"
)

const (
	// mismatchTolerance is the largest accepted |sum(amounts) - total|, in minor units
	mismatchTolerance = 1

	// percentPlaces is the precision percentages are stored and compared at
	percentPlaces = 2

	// hundredthsInWhole is 100.00% in hundredths of a percent
	hundredthsInWhole = 10000
)

var (
	hundred          = decimal.NewFromInt(100)
	percentTolerance = decimal.New(1, -percentPlaces)
)

// Engine computes and checks allocation sets. It holds no state.
type Engine struct{}

// NewEngine creates a new allocation engine
func NewEngine() *Engine {
	return &Engine{}
}

// Allocate computes the allocation set for total over targets.
//
// equal ignores overrides. specific starts from the equal split and applies
// override amounts. percentage starts from an even percentage split, applies
// override percentages and derives every amount from its percentage.
// Overrides for targets not in the list are dropped. A specific override in
// another currency than total fails with money.ErrCurrencyMismatch.
func (e *Engine) Allocate(total money.Money, targets []entity.TargetID, method entity.AllocationMethod, overrides []entity.PartialAllocation) (entity.AllocationSet, error) {
	switch method {
	case entity.MethodEqual:
		return equalSplit(total, targets), nil

	case entity.MethodSpecific:
		set := equalSplit(total, targets)
		for _, o := range overrides {
			if o.Amount == nil {
				continue
			}
			i := set.Index(o.TargetID)
			if i < 0 {
				continue
			}
			if err := total.CheckCurrency(*o.Amount); err != nil {
				return nil, fmt.Errorf("allocation for %s: %w", o.TargetID, err)
			}
			set[i].Amount = money.New(o.Amount.Minor, total.Currency)
		}
		return set, nil

	case entity.MethodPercentage:
		set := percentageSeed(total, targets)
		overridden := false
		for _, o := range overrides {
			if o.Percentage == nil {
				continue
			}
			if i := set.Index(o.TargetID); i >= 0 {
				p := o.Percentage.Round(percentPlaces)
				set[i].Percentage = &p
				overridden = true
			}
		}
		if overridden {
			applyPercentages(total, set)
		}
		return set, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Reseed discards any previous values and returns the default split for method
func (e *Engine) Reseed(total money.Money, targets []entity.TargetID, method entity.AllocationMethod) (entity.AllocationSet, error) {
	return e.Allocate(total, targets, method, nil)
}

// NeedsReseed reports whether a change of targets or method invalidates the previous set.
// Target lists are compared in order.
func NeedsReseed(prevTargets []entity.TargetID, prevMethod entity.AllocationMethod, targets []entity.TargetID, method entity.AllocationMethod) bool {
	if prevMethod != method || len(prevTargets) != len(targets) {
		return true
	}
	for i := range targets {
		if prevTargets[i] != targets[i] {
			return true
		}
	}
	return false
}

// Recompute brings prev up to date after any form edit.
//
// A changed target list or method reseeds from scratch. Otherwise equal is
// re-split, percentage re-derives amounts from the kept percentages, and
// specific keeps the user's amounts as they are, provided they are in the
// total's currency.
func (e *Engine) Recompute(prev entity.AllocationSet, prevMethod entity.AllocationMethod, total money.Money, targets []entity.TargetID, method entity.AllocationMethod) (entity.AllocationSet, error) {
	if NeedsReseed(prev.Targets(), prevMethod, targets, method) {
		return e.Reseed(total, targets, method)
	}

	switch method {
	case entity.MethodEqual:
		return equalSplit(total, targets), nil

	case entity.MethodPercentage:
		overrides := make([]entity.PartialAllocation, 0, len(prev))
		for _, a := range prev {
			if a.Percentage != nil {
				p := *a.Percentage
				overrides = append(overrides, entity.PartialAllocation{TargetID: a.TargetID, Percentage: &p})
			}
		}
		return e.Allocate(total, targets, method, overrides)

	case entity.MethodSpecific:
		set := prev.Clone()
		for i := range set {
			if err := total.CheckCurrency(set[i].Amount); err != nil {
				return nil, fmt.Errorf("allocation for %s: %w", set[i].TargetID, err)
			}
			set[i].Amount = money.New(set[i].Amount.Minor, total.Currency)
		}
		return set, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// UpdatePercentage sets one target's percentage and recomputes that target's
// amount as round(total * percentage / 100). Other percentages are never
// rebalanced; reaching 100% is the user's job. Once the percentages do add up
// to 100 within tolerance, every amount is re-derived with the rounding
// leftover spread as in Allocate, so the amounts match the total.
func (e *Engine) UpdatePercentage(set entity.AllocationSet, total money.Money, id entity.TargetID, percentage decimal.Decimal) (entity.AllocationSet, error) {
	i := set.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}

	out := set.Clone()
	p := percentage.Round(percentPlaces)
	out[i].Percentage = &p
	out[i].Amount = amountFor(total, p)

	if percentageSum(out).Sub(hundred).Abs().LessThanOrEqual(percentTolerance) {
		applyPercentages(total, out)
	}
	return out, nil
}

// UpdateAmount sets one target's amount. No other row is rebalanced.
// An amount in another currency than the row fails with money.ErrCurrencyMismatch.
func (e *Engine) UpdateAmount(set entity.AllocationSet, id entity.TargetID, amount money.Money) (entity.AllocationSet, error) {
	i := set.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}

	if err := set[i].Amount.CheckCurrency(amount); err != nil {
		return nil, fmt.Errorf("allocation for %s: %w", id, err)
	}

	out := set.Clone()
	out[i].Amount = amount
	return out, nil
}

// Sum returns the total of all allocated amounts
func Sum(set entity.AllocationSet, currency money.Currency) money.Money {
	sum := money.Zero(currency)
	for _, a := range set {
		sum = sum.Add(a.Amount)
	}
	return sum
}

func equalSplit(total money.Money, targets []entity.TargetID) entity.AllocationSet {
	set := make(entity.AllocationSet, len(targets))
	for i, share := range total.Split(len(targets)) {
		set[i] = entity.AssetAllocation{TargetID: targets[i], Amount: share}
	}
	return set
}

// percentageSeed gives every target 100/n percent, with leftover hundredths of
// a percent going to the first targets so the seed sums to exactly 100.00.
// Amounts are the equal split.
func percentageSeed(total money.Money, targets []entity.TargetID) entity.AllocationSet {
	set := equalSplit(total, targets)
	for i, share := range money.New(hundredthsInWhole, "").Split(len(targets)) {
		p := decimal.New(share.Minor, -percentPlaces)
		set[i].Percentage = &p
	}
	return set
}

// applyPercentages derives every amount from its percentage. When the
// percentages add up to 100 within tolerance, the rounding leftover is spread
// over the targets holding a positive percentage, first targets first, so the
// amounts add up to the total exactly.
func applyPercentages(total money.Money, set entity.AllocationSet) {
	for i := range set {
		set[i].Amount = amountFor(total, percentageOf(set[i]))
	}

	if percentageSum(set).Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return
	}

	leftover := total.Sub(Sum(set, total.Currency))
	if leftover.IsZero() {
		return
	}

	var bearers []int
	for i := range set {
		if percentageOf(set[i]).IsPositive() {
			bearers = append(bearers, i)
		}
	}
	for k, share := range leftover.Split(len(bearers)) {
		i := bearers[k]
		set[i].Amount = set[i].Amount.Add(share)
	}
}

// amountFor returns round(total * percentage / 100), half away from zero
func amountFor(total money.Money, percentage decimal.Decimal) money.Money {
	minor := decimal.NewFromInt(total.Minor).Mul(percentage).Div(hundred).Round(0).IntPart()
	return money.New(minor, total.Currency)
}

func percentageSum(set entity.AllocationSet) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range set {
		sum = sum.Add(percentageOf(a))
	}
	return sum
}

func percentageOf(a entity.AssetAllocation) decimal.Decimal {
	if a.Percentage == nil {
		return decimal.Zero
	}
	return *a.Percentage
}
