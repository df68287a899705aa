package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
)

// BalanceRepo handles the per-category ledger rows.
type BalanceRepo struct {
	db *sql.DB
}

func NewBalanceRepo(db *sql.DB) *BalanceRepo {
	return &BalanceRepo{db: db}
}

func (r *BalanceRepo) List(ctx context.Context) ([]budget.Balance, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT category_id, allocated, spent, available, last_updated
	FROM category_balances`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []budget.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertTx writes one balance row inside the caller's transaction. The
// engine returns balance rows in batches that must land together, so there
// is deliberately no single-row commit path.
func (r *BalanceRepo) UpsertTx(ctx context.Context, tx *sql.Tx, b budget.Balance) error {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO category_balances(category_id, allocated, spent, available, last_updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(category_id) DO UPDATE SET
	 allocated=excluded.allocated,
	 spent=excluded.spent,
	 available=excluded.available,
	 last_updated=excluded.last_updated;
	`, b.CategoryID, b.Allocated.String(), b.Spent.String(), b.Available.String(),
		b.LastUpdated.UTC().Format(timeLayout))
	return err
}

func scanBalance(rows *sql.Rows) (budget.Balance, error) {
	var b budget.Balance
	var allocated, spent, available, updated string
	if err := rows.Scan(&b.CategoryID, &allocated, &spent, &available, &updated); err != nil {
		return budget.Balance{}, err
	}
	var err error
	if b.Allocated, err = decimal.NewFromString(allocated); err != nil {
		return budget.Balance{}, fmt.Errorf("balance %s allocated: %w", b.CategoryID, err)
	}
	if b.Spent, err = decimal.NewFromString(spent); err != nil {
		return budget.Balance{}, fmt.Errorf("balance %s spent: %w", b.CategoryID, err)
	}
	if b.Available, err = decimal.NewFromString(available); err != nil {
		return budget.Balance{}, fmt.Errorf("balance %s available: %w", b.CategoryID, err)
	}
	if updated != "" {
		if b.LastUpdated, err = time.Parse(timeLayout, updated); err != nil {
			return budget.Balance{}, fmt.Errorf("balance %s last_updated: %w", b.CategoryID, err)
		}
	}
	return b, nil
}
