package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
)

// FundRepo handles the append-only income log.
type FundRepo struct {
	db *sql.DB
}

func NewFundRepo(db *sql.DB) *FundRepo {
	return &FundRepo{db: db}
}

// InsertTx appends a fund row inside the caller's transaction.
func (r *FundRepo) InsertTx(ctx context.Context, tx *sql.Tx, f budget.Fund) error {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO funds(id, amount, rollover_swept, added_at)
	VALUES (?, ?, ?, ?);
	`, f.ID, f.Amount.String(), f.RolloverSwept.String(), f.AddedAt.UTC().Format(timeLayout))
	return err
}

func (r *FundRepo) List(ctx context.Context) ([]budget.Fund, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, amount, rollover_swept, added_at
	FROM funds ORDER BY added_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []budget.Fund
	for rows.Next() {
		var f budget.Fund
		var amount, swept, added string
		if err := rows.Scan(&f.ID, &amount, &swept, &added); err != nil {
			return nil, err
		}
		if f.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("fund %s amount: %w", f.ID, err)
		}
		if f.RolloverSwept, err = decimal.NewFromString(swept); err != nil {
			return nil, fmt.Errorf("fund %s rollover: %w", f.ID, err)
		}
		if f.AddedAt, err = time.Parse(timeLayout, added); err != nil {
			return nil, fmt.Errorf("fund %s added_at: %w", f.ID, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// TotalAdded sums all income events ever recorded.
func (r *FundRepo) TotalAdded(ctx context.Context) (decimal.Decimal, error) {
	return sumColumn(ctx, r.db, `SELECT amount FROM funds`)
}

// sumColumn adds decimal-string values in Go rather than SQL, keeping the
// arithmetic exact instead of falling back to sqlite's float SUM.
func sumColumn(ctx context.Context, db *sql.DB, query string, args ...any) (decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}
