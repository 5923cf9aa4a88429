package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/internal/receipt"
	"github.com/garyjia/expense-intake/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrRecognizerUnavailable is returned when no recognition engine is configured
	ErrRecognizerUnavailable = errors.New("receipt recognition is not configured")

	// ErrExporterUnavailable is returned when no exporter is configured
	ErrExporterUnavailable = errors.New("allocation export is not configured")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AllocationResult is a recomputed allocation set and its invariant violations
type AllocationResult struct {
	Allocations entity.AllocationSet `json:"allocations"`
	Errors      []entity.FieldError  `json:"errors"`
}

// IntakeService drives the expense intake form: allocation edits, receipt
// extraction and the submit-time validation pass.
type IntakeService interface {
	Allocate(ctx context.Context, total money.Money, targets []entity.TargetID, method entity.AllocationMethod, overrides []entity.PartialAllocation) (*AllocationResult, error)
	RecomputeAllocation(ctx context.Context, prev entity.AllocationSet, prevMethod entity.AllocationMethod, total money.Money, targets []entity.TargetID, method entity.AllocationMethod) (*AllocationResult, error)
	UpdatePercentage(ctx context.Context, set entity.AllocationSet, total money.Money, id entity.TargetID, percentage decimal.Decimal) (*AllocationResult, error)
	UpdateAmount(ctx context.Context, set entity.AllocationSet, total money.Money, id entity.TargetID, amount money.Money) (*AllocationResult, error)
	ExtractReceiptText(ctx context.Context, rawText string, confidence float64) *entity.OCRExtractionResult
	RecognizeReceipt(ctx context.Context, data []byte, mimeType string) (*entity.OCRExtractionResult, error)
	ValidateDraft(ctx context.Context, userID string, draft entity.DraftExpense, proceedAnyway bool) (*entity.ValidationReport, error)
	ExportAllocation(ctx context.Context, draft entity.DraftExpense) ([]byte, *entity.ValidationReport, error)
}

// IntakeOptions tunes the history lookup
type IntakeOptions struct {
	HistoryLookback time.Duration
	HistoryLimit    int
	Now             func() time.Time
}

type intakeServiceImpl struct {
	engine     *allocation.Engine
	extractor  *receipt.Extractor
	validator  *validation.Validator
	history    port.ExpenseHistory
	recognizer port.Recognizer
	exporter   port.AllocationExporter
	opts       IntakeOptions
	logger     Logger
}

// NewIntakeService creates a new IntakeService. recognizer and exporter may be nil,
// in which case the matching operations report them as unavailable.
func NewIntakeService(
	engine *allocation.Engine,
	extractor *receipt.Extractor,
	validator *validation.Validator,
	history port.ExpenseHistory,
	recognizer port.Recognizer,
	exporter port.AllocationExporter,
	opts IntakeOptions,
	logger Logger,
) IntakeService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &intakeServiceImpl{
		engine:     engine,
		extractor:  extractor,
		validator:  validator,
		history:    history,
		recognizer: recognizer,
		exporter:   exporter,
		opts:       opts,
		logger:     logger,
	}
}

// Allocate computes a fresh allocation set and checks it
func (s *intakeServiceImpl) Allocate(ctx context.Context, total money.Money, targets []entity.TargetID, method entity.AllocationMethod, overrides []entity.PartialAllocation) (*AllocationResult, error) {
	set, err := s.engine.Allocate(total, targets, method, overrides)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	return s.result(total, method, set), nil
}

// RecomputeAllocation brings a previous set up to date after a form edit
func (s *intakeServiceImpl) RecomputeAllocation(ctx context.Context, prev entity.AllocationSet, prevMethod entity.AllocationMethod, total money.Money, targets []entity.TargetID, method entity.AllocationMethod) (*AllocationResult, error) {
	set, err := s.engine.Recompute(prev, prevMethod, total, targets, method)
	if err != nil {
		return nil, fmt.Errorf("recompute allocation: %w", err)
	}
	return s.result(total, method, set), nil
}

// UpdatePercentage edits one target's percentage without rebalancing the others
func (s *intakeServiceImpl) UpdatePercentage(ctx context.Context, set entity.AllocationSet, total money.Money, id entity.TargetID, percentage decimal.Decimal) (*AllocationResult, error) {
	out, err := s.engine.UpdatePercentage(set, total, id, percentage)
	if err != nil {
		return nil, fmt.Errorf("update percentage: %w", err)
	}
	return s.result(total, entity.MethodPercentage, out), nil
}

// UpdateAmount edits one target's amount without rebalancing the others
func (s *intakeServiceImpl) UpdateAmount(ctx context.Context, set entity.AllocationSet, total money.Money, id entity.TargetID, amount money.Money) (*AllocationResult, error) {
	out, err := s.engine.UpdateAmount(set, id, amount)
	if err != nil {
		return nil, fmt.Errorf("update amount: %w", err)
	}
	return s.result(total, entity.MethodSpecific, out), nil
}

func (s *intakeServiceImpl) result(total money.Money, method entity.AllocationMethod, set entity.AllocationSet) *AllocationResult {
	errs := s.engine.Validate(total, method, set)
	if errs == nil {
		errs = []entity.FieldError{}
	}
	return &AllocationResult{Allocations: set, Errors: errs}
}

// ExtractReceiptText parses text already produced by a recognition engine
func (s *intakeServiceImpl) ExtractReceiptText(ctx context.Context, rawText string, confidence float64) *entity.OCRExtractionResult {
	result := s.extractor.ExtractResult(rawText, confidence)
	s.logger.Info("Receipt text extracted",
		"confidence", confidence,
		"has_amount", result.Amount != nil,
		"items", len(result.Items),
		"needs_review", result.NeedsReview,
	)
	return result
}

// RecognizeReceipt sends a receipt file to the recognition engine and extracts its fields
func (s *intakeServiceImpl) RecognizeReceipt(ctx context.Context, data []byte, mimeType string) (*entity.OCRExtractionResult, error) {
	if s.recognizer == nil {
		return nil, ErrRecognizerUnavailable
	}

	recognized, err := s.recognizer.Recognize(ctx, data, mimeType)
	if err != nil {
		s.logger.Error("Receipt recognition failed", "error", err, "mime_type", mimeType, "size", len(data))
		return nil, fmt.Errorf("recognize receipt: %w", err)
	}

	return s.ExtractReceiptText(ctx, recognized.RawText, recognized.Confidence), nil
}

// ValidateDraft runs the submit-time checks against the user's recent history
func (s *intakeServiceImpl) ValidateDraft(ctx context.Context, userID string, draft entity.DraftExpense, proceedAnyway bool) (*entity.ValidationReport, error) {
	since := s.opts.Now().Add(-s.opts.HistoryLookback)
	history, err := s.history.ListRecent(ctx, userID, since, s.opts.HistoryLimit)
	if err != nil {
		s.logger.Error("Failed to load expense history", "error", err, "user_id", userID)
		return nil, fmt.Errorf("load expense history: %w", err)
	}

	report := s.validator.Validate(draft, history, proceedAnyway)
	report.ID = uuid.NewString()

	if report.RequiresConfirmation() {
		s.logger.Warn("Possible duplicate expense",
			"report_id", report.ID,
			"user_id", userID,
			"matches", len(report.Duplicates),
		)
	}
	s.logger.Info("Draft validated",
		"report_id", report.ID,
		"user_id", userID,
		"ok", report.OK,
		"errors", len(report.Errors),
		"history_records", len(history),
		"can_submit", report.CanSubmit(),
	)

	return report, nil
}

// ExportAllocation renders the draft's allocation with its field checks.
// History is not consulted.
func (s *intakeServiceImpl) ExportAllocation(ctx context.Context, draft entity.DraftExpense) ([]byte, *entity.ValidationReport, error) {
	if s.exporter == nil {
		return nil, nil, ErrExporterUnavailable
	}

	report := s.validator.Validate(draft, nil, false)
	report.ID = uuid.NewString()

	data, err := s.exporter.Export(ctx, port.AllocationSheet{Draft: draft, Report: report})
	if err != nil {
		s.logger.Error("Failed to export allocation", "error", err, "report_id", report.ID)
		return nil, nil, fmt.Errorf("export allocation: %w", err)
	}

	s.logger.Info("Allocation exported", "report_id", report.ID, "targets", len(draft.Allocations), "bytes", len(data))
	return data, report, nil
}
