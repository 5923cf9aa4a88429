package entity

import (
	"testing"

	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllocationMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    AllocationMethod
		wantErr bool
	}{
		{input: "equal", want: MethodEqual},
		{input: " Percentage ", want: MethodPercentage},
		{input: "SPECIFIC", want: MethodSpecific},
		{input: "weighted", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAllocationMethod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}

	assert.False(t, AllocationMethod("Equal").Valid())
}

func TestAllocationSet_Clone(t *testing.T) {
	pct := decimal.NewFromInt(50)
	original := AllocationSet{
		{TargetID: "a", Amount: money.New(100, money.CurrencyINR), Percentage: &pct},
		{TargetID: "b", Amount: money.New(100, money.CurrencyINR)},
	}

	clone := original.Clone()
	*clone[0].Percentage = decimal.NewFromInt(10)
	clone[1].Amount = money.New(5, money.CurrencyINR)

	assert.Equal(t, "50", original[0].Percentage.String())
	assert.Equal(t, int64(100), original[1].Amount.Minor)
	assert.Equal(t, 1, original.Index("b"))
	assert.Equal(t, -1, original.Index("zzz"))
	assert.Equal(t, []TargetID{"a", "b"}, original.Targets())
}

func TestDuplicateMatch_IsDuplicate(t *testing.T) {
	assert.True(t, DuplicateMatch{AmountMatch: true, DateMatch: true}.IsDuplicate())
	assert.True(t, DuplicateMatch{AmountMatch: true, DescriptionMatch: true}.IsDuplicate())
	assert.False(t, DuplicateMatch{AmountMatch: true}.IsDuplicate())
	assert.False(t, DuplicateMatch{DateMatch: true, DescriptionMatch: true}.IsDuplicate())
}

func TestValidationReport_CanSubmit(t *testing.T) {
	dup := []DuplicateMatch{{CandidateID: "x", AmountMatch: true, DateMatch: true}}

	t.Run("clean report submits", func(t *testing.T) {
		r := &ValidationReport{OK: true}
		assert.True(t, r.CanSubmit())
	})

	t.Run("duplicates need confirmation", func(t *testing.T) {
		r := &ValidationReport{OK: true, Duplicates: dup}
		assert.True(t, r.RequiresConfirmation())
		assert.False(t, r.CanSubmit())
	})

	t.Run("acknowledged duplicates submit", func(t *testing.T) {
		r := &ValidationReport{OK: true, Duplicates: dup, DuplicatesAcknowledged: true}
		assert.True(t, r.CanSubmit())
	})

	t.Run("acknowledgement never bypasses field errors", func(t *testing.T) {
		r := &ValidationReport{OK: false, Duplicates: dup, DuplicatesAcknowledged: true}
		assert.False(t, r.CanSubmit())
	})
}

func TestFieldError(t *testing.T) {
	err := NewFieldError(CodeNegativeAllocation, AllocationField("truck-7", "amount"), "amount must not be negative")
	assert.Equal(t, "allocations.truck-7.amount", err.Field)
	assert.Equal(t, SeverityError, err.Severity)
	assert.Contains(t, err.Error(), "NEGATIVE_ALLOCATION")

	adv := NewAdvisory(CodeExtractionEmpty, FieldReceipt, "nothing found")
	assert.Equal(t, SeverityAdvisory, adv.Severity)
}
