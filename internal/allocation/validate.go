package allocation

import (
	"fmt"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/shopspring/decimal"
)

// Validate checks the invariants of set against total and returns every
// violation as a field error. It is meant to run after each recompute.
// An empty set means the expense bears no targets and is always valid.
func (e *Engine) Validate(total money.Money, method entity.AllocationMethod, set entity.AllocationSet) []entity.FieldError {
	if len(set) == 0 {
		return nil
	}

	var errs []entity.FieldError

	seen := make(map[entity.TargetID]bool, len(set))
	for _, a := range set {
		if seen[a.TargetID] {
			errs = append(errs, entity.NewFieldError(entity.CodeDuplicateTarget, entity.FieldTargets,
				fmt.Sprintf("target %s is listed more than once", a.TargetID)))
		}
		seen[a.TargetID] = true
	}

	for _, a := range set {
		if a.Amount.IsNegative() {
			errs = append(errs, entity.NewFieldError(entity.CodeNegativeAllocation, entity.AllocationField(a.TargetID, "amount"),
				fmt.Sprintf("amount for %s must not be negative, got %s", a.TargetID, a.Amount)))
		}
	}

	sum := Sum(set, total.Currency)
	if diff := sum.Sub(total).Abs(); diff.Minor > mismatchTolerance {
		errs = append(errs, entity.NewFieldError(entity.CodeAllocationMismatch, entity.FieldAllocations,
			fmt.Sprintf("total mismatch: allocated %s, expected %s", sum, total)))
	}

	if method == entity.MethodPercentage {
		sumPct := decimal.Zero
		for _, a := range set {
			p := percentageOf(a)
			if p.IsNegative() {
				errs = append(errs, entity.NewFieldError(entity.CodeNegativeAllocation, entity.AllocationField(a.TargetID, entity.FieldPercentage),
					fmt.Sprintf("percentage for %s must not be negative, got %s", a.TargetID, p.StringFixed(percentPlaces))))
			}
			sumPct = sumPct.Add(p)
		}
		if sumPct.Sub(hundred).Abs().GreaterThan(percentTolerance) {
			errs = append(errs, entity.NewFieldError(entity.CodePercentageSum, entity.FieldPercentage,
				fmt.Sprintf("percentages must add up to 100, got %s", sumPct.StringFixed(percentPlaces))))
		}
	}

	return errs
}
