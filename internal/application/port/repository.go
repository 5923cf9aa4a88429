package port

import (
	"context"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// ExpenseHistory is the read-only source of a user's recorded expenses
type ExpenseHistory interface {
	// ListRecent returns at most limit records dated on or after since, newest first
	ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]entity.ExistingExpenseRecord, error)
}
