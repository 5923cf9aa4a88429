package entity

import (
	"time"

	"github.com/garyjia/expense-intake/internal/domain/money"
)

// TargetID identifies an asset or vehicle that can bear a share of an expense
type TargetID string

// DraftExpense is the expense being entered on the intake form.
// Engines read it and return new values; they never mutate it.
type DraftExpense struct {
	Amount           money.Money      `json:"amount"`
	Category         string           `json:"category"`
	Description      string           `json:"description"`
	Date             time.Time        `json:"date"`
	Time             string           `json:"time,omitempty"` // HH:MM, informational only
	Targets          []TargetID       `json:"targets"`
	AllocationMethod AllocationMethod `json:"allocation_method"`
	Allocations      AllocationSet    `json:"allocations"`
}

// ExistingExpenseRecord is a previously recorded expense owned by the history source
type ExistingExpenseRecord struct {
	ID          string      `json:"id"`
	Amount      money.Money `json:"amount"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
}

// DuplicateMatch describes how a recorded expense resembles the draft
type DuplicateMatch struct {
	CandidateID      string `json:"candidate_id"`
	AmountMatch      bool   `json:"amount_match"`
	DateMatch        bool   `json:"date_match"`
	DescriptionMatch bool   `json:"description_match"`
}

// IsDuplicate applies the match rule: amount is mandatory, date or description completes it
func (m DuplicateMatch) IsDuplicate() bool {
	return m.AmountMatch && (m.DateMatch || m.DescriptionMatch)
}
