package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"go.uber.org/zap"
)

// dateLayout is how expense_date is stored: a calendar day without a zone
const dateLayout = "2006-01-02"

// HistoryRepository implements port.ExpenseHistory on the expense_history table
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.ExpenseHistory {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// ListRecent retrieves the user's expenses dated on or after since, newest first
func (r *HistoryRepository) ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]entity.ExistingExpenseRecord, error) {
	query := `
		SELECT id, amount_minor, currency, expense_date, description
		FROM expense_history
		WHERE user_id = ? AND expense_date >= ?
		ORDER BY expense_date DESC, id ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since.Format(dateLayout), limit)
	if err != nil {
		r.logger.Error("Failed to list expense history", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list expense history: %w", err)
	}
	defer rows.Close()

	records := []entity.ExistingExpenseRecord{}
	for rows.Next() {
		var (
			record   entity.ExistingExpenseRecord
			minor    int64
			currency string
			day      string
		)
		if err := rows.Scan(&record.ID, &minor, &currency, &day, &record.Description); err != nil {
			return nil, fmt.Errorf("failed to scan expense record: %w", err)
		}

		record.Amount = money.New(minor, money.Currency(currency))
		record.Date, err = time.Parse(dateLayout, day)
		if err != nil {
			r.logger.Warn("Skipping expense with unreadable date",
				zap.String("id", record.ID),
				zap.String("expense_date", day))
			continue
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense history: %w", err)
	}

	r.logger.Debug("Expense history loaded",
		zap.String("user_id", userID),
		zap.Time("since", since),
		zap.Int("count", len(records)))

	return records, nil
}
