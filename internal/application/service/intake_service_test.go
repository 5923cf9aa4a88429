package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/internal/duplicate"
	"github.com/garyjia/expense-intake/internal/receipt"
	"github.com/garyjia/expense-intake/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]entity.ExistingExpenseRecord, error) {
	args := m.Called(ctx, userID, since, limit)
	records, _ := args.Get(0).([]entity.ExistingExpenseRecord)
	return records, args.Error(1)
}

type mockRecognizer struct {
	mock.Mock
}

func (m *mockRecognizer) Recognize(ctx context.Context, data []byte, mimeType string) (*port.RecognitionResult, error) {
	args := m.Called(ctx, data, mimeType)
	result, _ := args.Get(0).(*port.RecognitionResult)
	return result, args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Export(ctx context.Context, sheet port.AllocationSheet) ([]byte, error) {
	args := m.Called(ctx, sheet)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

var fixedNow = time.Date(2024, 1, 25, 10, 0, 0, 0, time.UTC)

func inr(s string) money.Money {
	return money.MustParse(s, money.CurrencyINR)
}

func newTestService(history port.ExpenseHistory, recognizer port.Recognizer, exporter port.AllocationExporter) IntakeService {
	engine := allocation.NewEngine()
	return NewIntakeService(
		engine,
		receipt.NewExtractor(money.CurrencyINR, receipt.DefaultConfidenceThreshold()),
		validation.NewValidator(engine, duplicate.NewDetector(duplicate.DefaultConfig()), validation.Limits{}),
		history,
		recognizer,
		exporter,
		IntakeOptions{HistoryLookback: 30 * 24 * time.Hour, HistoryLimit: 200, Now: func() time.Time { return fixedNow }},
		nopLogger{},
	)
}

func fuelDraft() entity.DraftExpense {
	targets := []entity.TargetID{"truck-1", "truck-2"}
	set, _ := allocation.NewEngine().Allocate(inr("500.00"), targets, entity.MethodEqual, nil)
	return entity.DraftExpense{
		Amount:           inr("500.00"),
		Category:         "fuel",
		Description:      "fuel",
		Date:             time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Targets:          targets,
		AllocationMethod: entity.MethodEqual,
		Allocations:      set,
	}
}

func TestIntakeService_Allocate(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx := context.Background()
	targets := []entity.TargetID{"a", "b", "c"}

	t.Run("equal split validates clean", func(t *testing.T) {
		res, err := svc.Allocate(ctx, inr("1000.00"), targets, entity.MethodEqual, nil)
		require.NoError(t, err)
		assert.Len(t, res.Allocations, 3)
		assert.Equal(t, "333.34", res.Allocations[0].Amount.String())
		assert.NotNil(t, res.Errors)
		assert.Empty(t, res.Errors)
	})

	t.Run("unknown method is an error", func(t *testing.T) {
		_, err := svc.Allocate(ctx, inr("1.00"), targets, "weighted", nil)
		assert.ErrorIs(t, err, allocation.ErrUnknownMethod)
	})

	t.Run("percentage edit surfaces the sum error", func(t *testing.T) {
		seed, err := svc.Allocate(ctx, inr("1000.00"), targets, entity.MethodPercentage, nil)
		require.NoError(t, err)

		res, err := svc.UpdatePercentage(ctx, seed.Allocations, inr("1000.00"), "a", decimal.NewFromInt(50))
		require.NoError(t, err)
		assert.Equal(t, "500.00", res.Allocations[0].Amount.String())

		var got []entity.ErrorCode
		for _, e := range res.Errors {
			got = append(got, e.Code)
		}
		assert.Contains(t, got, entity.CodePercentageSum)
	})

	t.Run("amount edit on unknown target", func(t *testing.T) {
		seed, err := svc.Allocate(ctx, inr("90.00"), targets, entity.MethodSpecific, nil)
		require.NoError(t, err)

		_, err = svc.UpdateAmount(ctx, seed.Allocations, inr("90.00"), "zzz", inr("1.00"))
		assert.ErrorIs(t, err, allocation.ErrUnknownTarget)
	})

	t.Run("recompute reseeds when targets change", func(t *testing.T) {
		seed, err := svc.Allocate(ctx, inr("90.00"), targets, entity.MethodSpecific, nil)
		require.NoError(t, err)

		res, err := svc.RecomputeAllocation(ctx, seed.Allocations, entity.MethodSpecific, inr("90.00"), targets[:2], entity.MethodSpecific)
		require.NoError(t, err)
		assert.Equal(t, []entity.TargetID{"a", "b"}, res.Allocations.Targets())
		assert.Equal(t, "45.00", res.Allocations[1].Amount.String())
	})
}

func TestIntakeService_ValidateDraft(t *testing.T) {
	ctx := context.Background()
	since := fixedNow.Add(-30 * 24 * time.Hour)

	t.Run("duplicate from history needs confirmation", func(t *testing.T) {
		history := new(mockHistory)
		history.On("ListRecent", ctx, "user-1", since, 200).Return([]entity.ExistingExpenseRecord{
			{ID: "exp-41", Amount: inr("500.50"), Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Description: "Fuel for trip"},
		}, nil)

		report, err := newTestService(history, nil, nil).ValidateDraft(ctx, "user-1", fuelDraft(), false)
		require.NoError(t, err)

		assert.NotEmpty(t, report.ID)
		assert.True(t, report.OK)
		assert.True(t, report.RequiresConfirmation())
		require.Len(t, report.Duplicates, 1)
		assert.Equal(t, "exp-41", report.Duplicates[0].CandidateID)
		history.AssertExpectations(t)
	})

	t.Run("proceed anyway lets it through", func(t *testing.T) {
		history := new(mockHistory)
		history.On("ListRecent", ctx, "user-1", since, 200).Return([]entity.ExistingExpenseRecord{
			{ID: "exp-41", Amount: inr("500"), Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		}, nil)

		report, err := newTestService(history, nil, nil).ValidateDraft(ctx, "user-1", fuelDraft(), true)
		require.NoError(t, err)
		assert.True(t, report.CanSubmit())
	})

	t.Run("history failure is returned", func(t *testing.T) {
		history := new(mockHistory)
		history.On("ListRecent", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(nil, errors.New("db closed"))

		_, err := newTestService(history, nil, nil).ValidateDraft(ctx, "user-1", fuelDraft(), false)
		assert.ErrorContains(t, err, "db closed")
	})

	t.Run("each report gets its own id", func(t *testing.T) {
		history := new(mockHistory)
		history.On("ListRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		svc := newTestService(history, nil, nil)

		first, err := svc.ValidateDraft(ctx, "user-1", fuelDraft(), false)
		require.NoError(t, err)
		second, err := svc.ValidateDraft(ctx, "user-1", fuelDraft(), false)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestIntakeService_RecognizeReceipt(t *testing.T) {
	ctx := context.Background()
	image := []byte{0xff, 0xd8, 0xff}

	t.Run("extracts recognized text", func(t *testing.T) {
		recognizer := new(mockRecognizer)
		recognizer.On("Recognize", ctx, image, "image/jpeg").Return(&port.RecognitionResult{
			RawText:    "Store: Sharma Fuels\nTotal: ₹2,250.00",
			Confidence: 55,
		}, nil)

		result, err := newTestService(nil, recognizer, nil).RecognizeReceipt(ctx, image, "image/jpeg")
		require.NoError(t, err)

		require.NotNil(t, result.Amount)
		assert.Equal(t, "2250.00", result.Amount.String())
		assert.Equal(t, "Sharma Fuels", result.Merchant)
		assert.True(t, result.NeedsReview)
		recognizer.AssertExpectations(t)
	})

	t.Run("recognizer failure is wrapped", func(t *testing.T) {
		recognizer := new(mockRecognizer)
		boom := errors.New("timeout")
		recognizer.On("Recognize", ctx, image, "image/png").Return(nil, boom)

		_, err := newTestService(nil, recognizer, nil).RecognizeReceipt(ctx, image, "image/png")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no recognizer configured", func(t *testing.T) {
		_, err := newTestService(nil, nil, nil).RecognizeReceipt(ctx, image, "image/png")
		assert.ErrorIs(t, err, ErrRecognizerUnavailable)
	})
}

func TestIntakeService_ExportAllocation(t *testing.T) {
	ctx := context.Background()

	t.Run("passes draft and report to the exporter", func(t *testing.T) {
		exporter := new(mockExporter)
		exporter.On("Export", ctx, mock.MatchedBy(func(s port.AllocationSheet) bool {
			return s.Report != nil && s.Report.OK && len(s.Draft.Allocations) == 2
		})).Return([]byte("xlsx"), nil)

		data, report, err := newTestService(nil, nil, exporter).ExportAllocation(ctx, fuelDraft())
		require.NoError(t, err)
		assert.Equal(t, []byte("xlsx"), data)
		assert.NotEmpty(t, report.ID)
		exporter.AssertExpectations(t)
	})

	t.Run("no exporter configured", func(t *testing.T) {
		_, _, err := newTestService(nil, nil, nil).ExportAllocation(ctx, fuelDraft())
		assert.ErrorIs(t, err, ErrExporterUnavailable)
	})
}
