package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// DateLayout is the wire format of expense dates
const DateLayout = "2006-01-02"

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AllocateRequest starts a fresh allocation
type AllocateRequest struct {
	Total     money.Money                `json:"total"`
	Targets   []entity.TargetID          `json:"targets"`
	Method    string                     `json:"method" binding:"required"`
	Overrides []entity.PartialAllocation `json:"overrides,omitempty"`
}

// RecomputeRequest brings a previous allocation up to date after a form edit
type RecomputeRequest struct {
	Previous       entity.AllocationSet `json:"previous"`
	PreviousMethod string               `json:"previous_method"`
	Total          money.Money          `json:"total"`
	Targets        []entity.TargetID    `json:"targets"`
	Method         string               `json:"method" binding:"required"`
}

// UpdatePercentageRequest edits one target's percentage
type UpdatePercentageRequest struct {
	Total       money.Money          `json:"total"`
	Allocations entity.AllocationSet `json:"allocations"`
	TargetID    entity.TargetID      `json:"target_id" binding:"required"`
	Percentage  decimal.Decimal      `json:"percentage"`
}

// UpdateAmountRequest edits one target's amount
type UpdateAmountRequest struct {
	Total       money.Money          `json:"total"`
	Allocations entity.AllocationSet `json:"allocations"`
	TargetID    entity.TargetID      `json:"target_id" binding:"required"`
	Amount      money.Money          `json:"amount"`
}

// ExtractReceiptRequest carries text already produced by a recognition engine
type ExtractReceiptRequest struct {
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence" binding:"min=0,max=100"`
}

// DraftRequest is the intake form as submitted
type DraftRequest struct {
	UserID           string               `json:"user_id"`
	Amount           money.Money          `json:"amount"`
	Category         string               `json:"category"`
	Description      string               `json:"description"`
	Date             string               `json:"date"`
	Time             string               `json:"time,omitempty"`
	Targets          []entity.TargetID    `json:"targets"`
	AllocationMethod string               `json:"allocation_method"`
	Allocations      entity.AllocationSet `json:"allocations"`
	ProceedAnyway    bool                 `json:"proceed_anyway"`
}

// ValidateResponse is a report plus the submit gate derived from it
type ValidateResponse struct {
	Report               *entity.ValidationReport `json:"report"`
	CanSubmit            bool                     `json:"can_submit"`
	RequiresConfirmation bool                     `json:"requires_confirmation"`
}

// toDraft sanitizes free text and parses the date. A blank date is left zero
// so the report can flag it against the field.
func (r DraftRequest) toDraft() (entity.DraftExpense, error) {
	if err := validateTargets(r.Targets); err != nil {
		return entity.DraftExpense{}, err
	}
	if err := validateTargets(r.Allocations.Targets()); err != nil {
		return entity.DraftExpense{}, err
	}

	var date time.Time
	if r.Date != "" {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			return entity.DraftExpense{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", r.Date)
		}
		date = d
	}

	return entity.DraftExpense{
		Amount:           r.Amount,
		Category:         utils.SanitizeString(r.Category),
		Description:      utils.SanitizeString(r.Description),
		Date:             date,
		Time:             utils.SanitizeString(r.Time),
		Targets:          r.Targets,
		AllocationMethod: normalizeMethod(r.AllocationMethod),
		Allocations:      r.Allocations,
	}, nil
}

func validateTargets(ids []entity.TargetID) error {
	for _, id := range ids {
		if err := utils.ValidateTargetID(string(id)); err != nil {
			return err
		}
	}
	return nil
}

// normalizeMethod accepts any case; unknown names pass through so the
// service can reject them
func normalizeMethod(s string) entity.AllocationMethod {
	if m, err := entity.ParseAllocationMethod(s); err == nil {
		return m
	}
	return entity.AllocationMethod(s)
}
