package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
)

// TransactionRecord is a transaction row joined with the names of the
// charged and absorbing categories, for display.
type TransactionRecord struct {
	budget.Transaction
	CategoryName     string
	OverflowFromName *string
}

// TransactionRepo handles the append-only expense log.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// InsertTx appends a transaction row inside the caller's transaction.
func (r *TransactionRepo) InsertTx(ctx context.Context, tx *sql.Tx, t budget.Transaction) error {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO transactions(id, category_id, amount, description, overflow_from_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?);
	`, t.ID, t.CategoryID, t.Amount.String(), t.Description, t.OverflowFromID,
		t.CreatedAt.UTC().Format(timeLayout))
	return err
}

// ListRange returns transactions with created_at in [from, to), newest
// first. Zero bounds disable that side of the filter.
func (r *TransactionRepo) ListRange(ctx context.Context, from, to time.Time) ([]TransactionRecord, error) {
	query := `
	SELECT t.id, t.category_id, c.name, t.amount, t.description,
	       t.overflow_from_id, o.name, t.created_at
	FROM transactions t
	JOIN categories c ON c.id = t.category_id
	LEFT JOIN categories o ON o.id = t.overflow_from_id`
	var where []string
	var args []any
	if !from.IsZero() {
		where = append(where, "t.created_at >= ?")
		args = append(args, from.UTC().Format(timeLayout))
	}
	if !to.IsZero() {
		where = append(where, "t.created_at < ?")
		args = append(args, to.UTC().Format(timeLayout))
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	// rowid breaks same-second ties by insertion order.
	query += " ORDER BY t.created_at DESC, t.rowid DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRecord
	for rows.Next() {
		var rec TransactionRecord
		var amount, created string
		var overflowID, overflowName sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CategoryID, &rec.CategoryName, &amount,
			&rec.Description, &overflowID, &overflowName, &created); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("transaction %s created_at: %w", rec.ID, err)
		}
		if overflowID.Valid {
			rec.OverflowFromID = &overflowID.String
		}
		if overflowName.Valid {
			rec.OverflowFromName = &overflowName.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TotalSpent sums every expense ever recorded.
func (r *TransactionRepo) TotalSpent(ctx context.Context) (decimal.Decimal, error) {
	return sumColumn(ctx, r.db, `SELECT amount FROM transactions`)
}
