package validation

import (
	"testing"
	"time"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/internal/duplicate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inr(s string) money.Money {
	return money.MustParse(s, money.CurrencyINR)
}

func newTestValidator() *Validator {
	return NewValidator(allocation.NewEngine(), duplicate.NewDetector(duplicate.DefaultConfig()),
		Limits{MaxAmount: inr("100000.00")})
}

func validDraft(t *testing.T) entity.DraftExpense {
	t.Helper()
	targets := []entity.TargetID{"truck-1", "truck-2", "truck-3"}
	set, err := allocation.NewEngine().Allocate(inr("1000.00"), targets, entity.MethodEqual, nil)
	require.NoError(t, err)

	return entity.DraftExpense{
		Amount:           inr("1000.00"),
		Category:         "fuel",
		Description:      "fuel",
		Date:             time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Targets:          targets,
		AllocationMethod: entity.MethodEqual,
		Allocations:      set,
	}
}

func codes(errs []entity.FieldError) []entity.ErrorCode {
	out := make([]entity.ErrorCode, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidator_Validate(t *testing.T) {
	v := newTestValidator()

	t.Run("clean draft submits", func(t *testing.T) {
		report := v.Validate(validDraft(t), nil, false)

		assert.True(t, report.OK)
		assert.True(t, report.CanSubmit())
		assert.Empty(t, report.FieldErrors)
		assert.Empty(t, report.Errors)
		assert.Empty(t, report.Duplicates)
	})

	t.Run("negative allocation fails the report", func(t *testing.T) {
		draft := validDraft(t)
		set, err := allocation.NewEngine().UpdateAmount(draft.Allocations, "truck-2", inr("-10.00"))
		require.NoError(t, err)
		draft.Allocations = set
		draft.AllocationMethod = entity.MethodSpecific

		report := v.Validate(draft, nil, true)

		assert.False(t, report.OK)
		assert.False(t, report.CanSubmit(), "proceed anyway never bypasses field errors")
		assert.Contains(t, codes(report.Errors), entity.CodeNegativeAllocation)
		assert.Contains(t, report.FieldErrors, "allocations.truck-2.amount")
	})

	t.Run("target added without recompute is a mismatch", func(t *testing.T) {
		draft := validDraft(t)
		draft.Targets = append(draft.Targets, "truck-4")

		report := v.Validate(draft, nil, false)
		assert.False(t, report.OK)
		assert.Equal(t, []entity.ErrorCode{entity.CodeAllocationMismatch}, codes(report.Errors))
	})

	t.Run("no targets needs no allocation", func(t *testing.T) {
		draft := validDraft(t)
		draft.Targets = nil
		draft.Allocations = nil
		draft.AllocationMethod = ""

		assert.True(t, v.Validate(draft, nil, false).OK)
	})
}

func TestValidator_Duplicates(t *testing.T) {
	v := newTestValidator()
	draft := validDraft(t)
	draft.Amount = inr("500.00")
	set, err := allocation.NewEngine().Allocate(draft.Amount, draft.Targets, entity.MethodEqual, nil)
	require.NoError(t, err)
	draft.Allocations = set

	history := []entity.ExistingExpenseRecord{
		{ID: "exp-9", Amount: inr("500.50"), Date: draft.Date, Description: "Fuel for trip"},
		{ID: "exp-10", Amount: inr("80.00"), Date: draft.Date, Description: "fuel"},
	}

	t.Run("duplicates ask for confirmation without failing", func(t *testing.T) {
		report := v.Validate(draft, history, false)

		assert.True(t, report.OK)
		assert.True(t, report.RequiresConfirmation())
		assert.False(t, report.CanSubmit())
		require.Len(t, report.Duplicates, 1)
		assert.Equal(t, "exp-9", report.Duplicates[0].CandidateID)
		require.Len(t, report.Advisories, 1)
		assert.Equal(t, entity.CodeDuplicateSuspected, report.Advisories[0].Code)
		assert.Equal(t, entity.FieldAmount, report.Advisories[0].Field)
	})

	t.Run("proceed anyway acknowledges them", func(t *testing.T) {
		report := v.Validate(draft, history, true)
		assert.True(t, report.DuplicatesAcknowledged)
		assert.True(t, report.CanSubmit())
	})
}

func TestValidator_CheckFields(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		mutate func(d *entity.DraftExpense)
		want   []entity.ErrorCode
		field  string
	}{
		{name: "zero amount", mutate: func(d *entity.DraftExpense) { d.Amount = inr("0") }, want: []entity.ErrorCode{entity.CodeInvalidAmount}, field: entity.FieldAmount},
		{name: "over the limit", mutate: func(d *entity.DraftExpense) { d.Amount = inr("100000.01") }, want: []entity.ErrorCode{entity.CodeInvalidAmount}, field: entity.FieldAmount},
		{name: "blank category", mutate: func(d *entity.DraftExpense) { d.Category = "  " }, want: []entity.ErrorCode{entity.CodeRequired}, field: entity.FieldCategory},
		{name: "missing date", mutate: func(d *entity.DraftExpense) { d.Date = time.Time{} }, want: []entity.ErrorCode{entity.CodeRequired}, field: entity.FieldDate},
		{name: "unknown method", mutate: func(d *entity.DraftExpense) { d.AllocationMethod = "weighted" }, want: []entity.ErrorCode{entity.CodeInvalidMethod}, field: entity.FieldAllocationMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft(t)
			tt.mutate(&draft)

			errs := v.CheckFields(draft)
			assert.Equal(t, tt.want, codes(errs))
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}

	t.Run("limit message names both values", func(t *testing.T) {
		draft := validDraft(t)
		draft.Amount = inr("250000")
		errs := v.CheckFields(draft)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "250000.00")
		assert.Contains(t, errs[0].Message, "100000.00")
	})
}

func TestBuild(t *testing.T) {
	t.Run("messages on one field are joined", func(t *testing.T) {
		report := Build([]entity.FieldError{
			entity.NewFieldError(entity.CodeRequired, "date", "date is required"),
			entity.NewFieldError(entity.CodeInvalidAmount, "date", "date is in the future"),
		}, nil, false)

		assert.False(t, report.OK)
		assert.Equal(t, "date is required; date is in the future", report.FieldErrors["date"])
		assert.Len(t, report.Errors, 2)
	})

	t.Run("advisories do not fail the report", func(t *testing.T) {
		report := Build([]entity.FieldError{
			entity.NewAdvisory(entity.CodeExtractionLowConfidence, entity.FieldReceipt, "check the fields"),
		}, nil, false)

		assert.True(t, report.OK)
		assert.Empty(t, report.FieldErrors)
		assert.Len(t, report.Advisories, 1)
	})

	t.Run("acknowledgement without duplicates is not recorded", func(t *testing.T) {
		report := Build(nil, nil, true)
		assert.False(t, report.DuplicatesAcknowledged)
		assert.True(t, report.CanSubmit())
	})
}
