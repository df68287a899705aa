package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/kakeibo/internal/database"
)

// Reset wipes all budget data and reseeds the stock category graph. History,
// balances and configuration all go in one transaction.
func (s *BudgetService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, table := range []string{"transactions", "funds", "category_balances", "categories"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := database.SeedDefaults(ctx, s.DB); err != nil {
		return fmt.Errorf("reseed defaults: %w", err)
	}
	s.logger().Warn("budget data reset to defaults")
	return nil
}
