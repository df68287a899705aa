package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
	"github.com/jask/kakeibo/internal/database/repository"
)

// The stock kakeibo split: every spending category eventually overflows
// into Savings, the terminal absorber. Targets are listed before the
// categories that point at them so foreign keys hold during seeding.
var defaultCategories = []struct {
	name      string
	limit     string
	overflow  string // empty = terminal
	sortOrder int
}{
	{"Savings", "50", "", 5},
	{"Unexpected", "10", "Savings", 4},
	{"Needs", "30", "Unexpected", 1},
	{"Wants", "5", "Unexpected", 2},
	{"Culture", "5", "Unexpected", 3},
}

// CategoryID returns the deterministic id for a category name, so seeding
// stays idempotent across runs and databases.
func CategoryID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("category:"+name)).String()
}

// SeedDefaults ensures the baseline category graph and zero balances exist
// for new databases. It is a no-op when any categories are present.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	return WithTx(db, func(tx *sql.Tx) error {
		for _, c := range defaultCategories {
			limit, err := decimal.NewFromString(c.limit)
			if err != nil {
				return err
			}
			cat := budget.Category{
				ID:              CategoryID(c.name),
				Name:            c.name,
				LimitPercentage: limit,
				SortOrder:       c.sortOrder,
			}
			if c.overflow != "" {
				id := CategoryID(c.overflow)
				cat.OverflowToID = &id
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories(id, name, limit_percentage, overflow_to_id, sort_order)
			VALUES (?, ?, ?, ?, ?)`,
				cat.ID, cat.Name, cat.LimitPercentage.String(), cat.OverflowToID, cat.SortOrder); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_balances(category_id, allocated, spent, available, last_updated)
			VALUES (?, '0', '0', '0', ?)`,
				cat.ID, Now().Format("2006-01-02T15:04:05Z07:00")); err != nil {
				return err
			}
		}
		return nil
	})
}
