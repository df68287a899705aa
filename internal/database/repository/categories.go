// Package repository provides row-level access to the budget store. Money
// columns are decimal strings; binary floating point never touches them.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
)

const timeLayout = time.RFC3339

// CategoryRepo handles category configuration rows.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Upsert(ctx context.Context, c budget.Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, name, limit_percentage, overflow_to_id, sort_order)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 limit_percentage=excluded.limit_percentage,
	 overflow_to_id=excluded.overflow_to_id,
	 sort_order=excluded.sort_order;
	`, c.ID, c.Name, c.LimitPercentage.String(), c.OverflowToID, c.SortOrder)
	return err
}

func (r *CategoryRepo) List(ctx context.Context) ([]budget.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, limit_percentage, overflow_to_id, sort_order
	FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []budget.Category
	for rows.Next() {
		var c budget.Category
		var limit string
		var overflow sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &limit, &overflow, &c.SortOrder); err != nil {
			return nil, err
		}
		if c.LimitPercentage, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("category %s limit: %w", c.ID, err)
		}
		if overflow.Valid {
			c.OverflowToID = &overflow.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateLimit changes a category's allocation percentage.
func (r *CategoryRepo) UpdateLimit(ctx context.Context, id string, limit decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET limit_percentage = ? WHERE id = ?`, limit.String(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &budget.UnknownCategoryError{ID: id}
	}
	return nil
}

// UpdateOverflowTarget repoints a category's overflow edge. A nil target
// makes the category terminal.
func (r *CategoryRepo) UpdateOverflowTarget(ctx context.Context, id string, target *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET overflow_to_id = ? WHERE id = ?`, target, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &budget.UnknownCategoryError{ID: id}
	}
	return nil
}
