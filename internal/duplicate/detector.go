// Package duplicate flags prior expenses that look like a re-submission of a draft.
package duplicate

import (
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"golang.org/x/text/cases"
)

// DefaultAmountTolerance is one currency unit in minor units
const DefaultAmountTolerance int64 = 100

// Config holds the match tolerances
type Config struct {
	// AmountTolerance is the exclusive upper bound on |candidate - record|, in minor units
	AmountTolerance int64
}

// DefaultConfig returns a one-unit amount tolerance
func DefaultConfig() Config {
	return Config{AmountTolerance: DefaultAmountTolerance}
}

// Validate checks the tolerance is usable
func (c Config) Validate() error {
	if c.AmountTolerance <= 0 {
		return ErrInvalidTolerance
	}
	return nil
}

// Detector compares a draft against the user's expense history
type Detector struct {
	config Config
}

// NewDetector creates a detector. A zero tolerance falls back to the default.
func NewDetector(config Config) *Detector {
	if config.AmountTolerance <= 0 {
		config.AmountTolerance = DefaultAmountTolerance
	}
	return &Detector{config: config}
}

// FindDuplicates returns a match for every record that satisfies
// amount && (date || description), in corpus order.
func (d *Detector) FindDuplicates(candidate entity.DraftExpense, corpus []entity.ExistingExpenseRecord) []entity.DuplicateMatch {
	var matches []entity.DuplicateMatch
	for _, record := range corpus {
		m := d.Evaluate(candidate, record)
		if m.IsDuplicate() {
			matches = append(matches, m)
		}
	}
	return matches
}

// Evaluate returns the raw match flags of candidate against one record
func (d *Detector) Evaluate(candidate entity.DraftExpense, record entity.ExistingExpenseRecord) entity.DuplicateMatch {
	return entity.DuplicateMatch{
		CandidateID:      record.ID,
		AmountMatch:      d.amountMatch(candidate.Amount, record.Amount),
		DateMatch:        sameDay(candidate.Date, record.Date),
		DescriptionMatch: descriptionMatch(candidate.Description, record.Description),
	}
}

func (d *Detector) amountMatch(a, b money.Money) bool {
	if !a.SameCurrency(b) {
		return false
	}
	return a.Sub(b).Abs().Minor < d.config.AmountTolerance
}

// sameDay compares calendar days in each value's own location
func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func descriptionMatch(a, b string) bool {
	a = fold(a)
	b = fold(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// fold trims and case-folds s. Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
