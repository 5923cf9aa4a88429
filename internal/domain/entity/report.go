package entity

import (
	"fmt"

	"github.com/garyjia/expense-intake/internal/domain/money"
)

// FieldError is a reported, non-fatal problem attached to one form control
type FieldError struct {
	Code     ErrorCode `json:"code"`
	Field    string    `json:"field"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Error implements error
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// NewFieldError creates a blocking field error
func NewFieldError(code ErrorCode, field, message string) FieldError {
	return FieldError{Code: code, Field: field, Message: message, Severity: SeverityError}
}

// NewAdvisory creates a non-blocking field advisory
func NewAdvisory(code ErrorCode, field, message string) FieldError {
	return FieldError{Code: code, Field: field, Message: message, Severity: SeverityAdvisory}
}

// AllocationField names a per-target control, e.g. "allocations.truck-7.amount"
func AllocationField(id TargetID, control string) string {
	return fmt.Sprintf("%s.%s.%s", FieldAllocations, id, control)
}

// OCRExtractionResult holds candidate field values parsed from recognized receipt text.
// Absent fields are left empty; the user accepts or overrides each one.
type OCRExtractionResult struct {
	RawText     string       `json:"raw_text"`
	Confidence  float64      `json:"confidence"` // 0..100, from the recognition engine
	Amount      *money.Money `json:"amount,omitempty"`
	Date        string       `json:"date,omitempty"` // as matched, not normalized
	Merchant    string       `json:"merchant,omitempty"`
	Items       []string     `json:"items,omitempty"`
	NeedsReview bool         `json:"needs_review"`
	Advisories  []FieldError `json:"advisories,omitempty"`
}

// IsEmpty reports whether no field could be extracted
func (r *OCRExtractionResult) IsEmpty() bool {
	return r.Amount == nil && r.Date == "" && r.Merchant == "" && len(r.Items) == 0
}

// ValidationReport is the result of one validation pass over a draft.
// OK only reflects field errors; duplicates ask for confirmation instead.
type ValidationReport struct {
	ID                     string            `json:"id"`
	OK                     bool              `json:"ok"`
	FieldErrors            map[string]string `json:"field_errors"`
	Errors                 []FieldError      `json:"errors"`
	Duplicates             []DuplicateMatch  `json:"duplicates"`
	Advisories             []FieldError      `json:"advisories,omitempty"`
	DuplicatesAcknowledged bool              `json:"duplicates_acknowledged"`
}

// RequiresConfirmation reports whether the user must re-confirm before submitting
func (r *ValidationReport) RequiresConfirmation() bool {
	return len(r.Duplicates) > 0 && !r.DuplicatesAcknowledged
}

// CanSubmit is the submit gate: no field errors, and duplicates either absent or acknowledged
func (r *ValidationReport) CanSubmit() bool {
	return r.OK && !r.RequiresConfirmation()
}
