// Package validation assembles the submit-gate report for an expense draft.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/internal/duplicate"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// Limits bounds what a single draft may claim
type Limits struct {
	// MaxAmount is the largest accepted total; zero means no limit
	MaxAmount money.Money
}

// Validator runs the draft field checks, the allocation invariants and the
// duplicate scan, and folds them into one report.
type Validator struct {
	allocation *allocation.Engine
	duplicates *duplicate.Detector
	limits     Limits
}

// NewValidator creates a validator over the given engines
func NewValidator(engine *allocation.Engine, detector *duplicate.Detector, limits Limits) *Validator {
	return &Validator{
		allocation: engine,
		duplicates: detector,
		limits:     limits,
	}
}

// Validate checks draft against history. proceedAnyway acknowledges duplicate
// matches; it never clears a field error.
func (v *Validator) Validate(draft entity.DraftExpense, history []entity.ExistingExpenseRecord, proceedAnyway bool) *entity.ValidationReport {
	errs := v.CheckFields(draft)

	if method, err := entity.ParseAllocationMethod(string(draft.AllocationMethod)); err == nil && draft.Amount.IsPositive() {
		errs = append(errs, v.checkAllocations(draft, method)...)
	}

	matches := v.duplicates.FindDuplicates(draft, history)
	return Build(errs, matches, proceedAnyway)
}

// CheckFields validates the draft's own fields, independent of allocations and history
func (v *Validator) CheckFields(draft entity.DraftExpense) []entity.FieldError {
	var errs []entity.FieldError

	if err := utils.ValidateAmount(draft.Amount.Minor, v.limits.MaxAmount.Minor); err != nil {
		msg := "amount must be greater than zero"
		if errors.Is(err, utils.ErrAmountTooLarge) {
			msg = fmt.Sprintf("amount %s exceeds the limit of %s", draft.Amount, v.limits.MaxAmount)
		}
		errs = append(errs, entity.NewFieldError(entity.CodeInvalidAmount, entity.FieldAmount, msg))
	}

	if strings.TrimSpace(draft.Category) == "" {
		errs = append(errs, entity.NewFieldError(entity.CodeRequired, entity.FieldCategory, "category is required"))
	}

	if draft.Date.IsZero() {
		errs = append(errs, entity.NewFieldError(entity.CodeRequired, entity.FieldDate, "date is required"))
	}

	if _, err := entity.ParseAllocationMethod(string(draft.AllocationMethod)); err != nil && len(draft.Targets) > 0 {
		errs = append(errs, entity.NewFieldError(entity.CodeInvalidMethod, entity.FieldAllocationMethod,
			fmt.Sprintf("allocation method must be equal, specific or percentage, got %q", draft.AllocationMethod)))
	}

	return errs
}

func (v *Validator) checkAllocations(draft entity.DraftExpense, method entity.AllocationMethod) []entity.FieldError {
	if len(draft.Targets) == 0 {
		return nil
	}
	if allocation.NeedsReseed(draft.Allocations.Targets(), method, draft.Targets, method) {
		return []entity.FieldError{entity.NewFieldError(entity.CodeAllocationMismatch, entity.FieldAllocations,
			"allocations do not match the selected targets, recompute them")}
	}
	return v.allocation.Validate(draft.Amount, method, draft.Allocations)
}

// Build folds field errors and duplicate matches into a report. OK depends on
// field errors only; duplicates surface as an advisory until acknowledged.
func Build(errs []entity.FieldError, duplicates []entity.DuplicateMatch, proceedAnyway bool) *entity.ValidationReport {
	report := &entity.ValidationReport{
		FieldErrors:            make(map[string]string),
		Errors:                 []entity.FieldError{},
		Duplicates:             []entity.DuplicateMatch{},
		DuplicatesAcknowledged: proceedAnyway && len(duplicates) > 0,
	}

	for _, e := range errs {
		if e.Severity == entity.SeverityAdvisory {
			report.Advisories = append(report.Advisories, e)
			continue
		}
		report.Errors = append(report.Errors, e)
		if prev, ok := report.FieldErrors[e.Field]; ok {
			report.FieldErrors[e.Field] = prev + "; " + e.Message
		} else {
			report.FieldErrors[e.Field] = e.Message
		}
	}

	if len(duplicates) > 0 {
		report.Duplicates = append(report.Duplicates, duplicates...)
		report.Advisories = append(report.Advisories, entity.NewAdvisory(entity.CodeDuplicateSuspected, entity.FieldAmount,
			fmt.Sprintf("%d similar expense(s) already recorded, confirm to submit anyway", len(duplicates))))
	}

	report.OK = len(report.Errors) == 0
	return report
}
