package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestAllocationSheet_Export(t *testing.T) {
	total := money.MustParse("1000.00", money.CurrencyINR)
	set, err := allocation.NewEngine().Allocate(total, []entity.TargetID{"truck-1", "truck-2", "truck-3"}, entity.MethodPercentage, nil)
	require.NoError(t, err)

	sheet := port.AllocationSheet{
		Draft: entity.DraftExpense{
			Amount:           total,
			Category:         "fuel",
			Description:      "Diesel refill",
			Date:             time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			Targets:          set.Targets(),
			AllocationMethod: entity.MethodPercentage,
			Allocations:      set,
		},
		Report: &entity.ValidationReport{
			ID:         "report-1",
			OK:         true,
			Duplicates: []entity.DuplicateMatch{{CandidateID: "exp-41", AmountMatch: true, DateMatch: true}},
		},
	}

	data, err := NewAllocationSheet("Split", zap.NewNop()).Export(context.Background(), sheet)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Split"}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	cell := func(ref string) string {
		v, err := f.GetCellValue("Split", ref, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Expense allocation", cell("A1"))
	assert.Equal(t, "Amount", cell("A3"))
	assert.Equal(t, "1000", cell("B3"))
	assert.Equal(t, "fuel", cell("B5"))
	assert.Equal(t, "2024-01-20", cell("B7"))
	assert.Equal(t, "percentage", cell("B8"))
	assert.Equal(t, "report-1", cell("B9"))
	assert.Equal(t, "Needs confirmation", cell("B10"))

	assert.Equal(t, "Target", cell("A12"))
	assert.Equal(t, "truck-1", cell("A13"))
	assert.Equal(t, "333.34", cell("B13"))
	assert.Equal(t, "33.34", cell("C13"))
	assert.Equal(t, "truck-3", cell("A15"))
	assert.Equal(t, "Total", cell("A16"))
	assert.Equal(t, "1000", cell("B16"))

	assert.Equal(t, "Possible duplicate", cell("A18"))
	assert.Equal(t, "exp-41", cell("A19"))
	assert.Equal(t, "yes", cell("C19"))
	assert.Equal(t, "no", cell("D19"))
}

func TestAllocationSheet_ExportWithErrors(t *testing.T) {
	total := money.MustParse("90.00", money.CurrencyINR)
	sheet := port.AllocationSheet{
		Draft: entity.DraftExpense{
			Amount:           total,
			AllocationMethod: entity.MethodSpecific,
			Allocations: entity.AllocationSet{
				{TargetID: "a", Amount: money.MustParse("100.00", money.CurrencyINR)},
			},
		},
		Report: &entity.ValidationReport{
			OK: false,
			Errors: []entity.FieldError{
				entity.NewFieldError(entity.CodeAllocationMismatch, entity.FieldAllocations, "total mismatch: allocated 100.00, expected 90.00"),
			},
		},
	}

	data, err := NewAllocationSheet("", zap.NewNop()).Export(context.Background(), sheet)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(defaultSheetName)
	require.NoError(t, err)

	var found bool
	for _, r := range rows {
		if len(r) >= 3 && r[0] == "ALLOCATION_MISMATCH" {
			found = true
			assert.Equal(t, "allocations", r[1])
		}
		if len(r) >= 2 && r[0] == "Status" {
			assert.Equal(t, "Needs correction", r[1])
		}
	}
	assert.True(t, found, "error rows are written")
}
