package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/kakeibo/internal/budget"
	"github.com/jask/kakeibo/internal/database"
	"github.com/jask/kakeibo/internal/log"
)

func newTestService(t *testing.T) (context.Context, *BudgetService, *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	t.Log("migrations applied")

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.SeedDefaults(ctx, db))
	t.Log("defaults seeded")

	return ctx, NewBudgetService(db, log.New("error")), db
}

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func balanceFor(t *testing.T, cats []CategoryBalance, name string) CategoryBalance {
	t.Helper()
	for _, cb := range cats {
		if cb.Category.Name == name {
			return cb
		}
	}
	t.Fatalf("no category named %s", name)
	return CategoryBalance{}
}

func TestSeedDefaultsIdempotent(t *testing.T) {
	t.Parallel()

	ctx, svc, db := newTestService(t)

	// Seeding again must not duplicate or reset anything.
	require.NoError(t, database.SeedDefaults(ctx, db))

	cats, err := svc.CategoryBalances(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 5)

	// Display order, spenders first, terminal last.
	names := make([]string, 0, len(cats))
	for _, cb := range cats {
		names = append(names, cb.Category.Name)
	}
	require.Equal(t, []string{"Needs", "Wants", "Culture", "Unexpected", "Savings"}, names)

	savings := balanceFor(t, cats, "Savings")
	require.True(t, savings.Category.Terminal())
	require.True(t, savings.Balance.Available.IsZero())
}

func TestAddFundsAllocatesByPercentage(t *testing.T) {
	t.Parallel()

	ctx, svc, _ := newTestService(t)

	fund, err := svc.AddFunds(ctx, amt(1_000_000))
	require.NoError(t, err)
	require.True(t, fund.RolloverSwept.IsZero())

	cats, err := svc.CategoryBalances(ctx)
	require.NoError(t, err)
	require.True(t, balanceFor(t, cats, "Needs").Balance.Available.Equal(amt(300_000)))
	require.True(t, balanceFor(t, cats, "Wants").Balance.Available.Equal(amt(50_000)))
	require.True(t, balanceFor(t, cats, "Culture").Balance.Available.Equal(amt(50_000)))
	require.True(t, balanceFor(t, cats, "Unexpected").Balance.Available.Equal(amt(100_000)))
	require.True(t, balanceFor(t, cats, "Savings").Balance.Available.Equal(amt(500_000)))
}

func TestSpendOverflowsThroughChain(t *testing.T) {
	t.Parallel()

	ctx, svc, _ := newTestService(t)
	_, err := svc.AddFunds(ctx, amt(1_000_000))
	require.NoError(t, err)

	// 320k exceeds Needs (300k) and Unexpected (100k); Savings absorbs.
	txn, warning, err := svc.Spend(ctx, "needs", amt(320_000), "fridge repair")
	require.NoError(t, err)
	require.Nil(t, warning)
	require.NotNil(t, txn.OverflowFromID)
	require.Equal(t, database.CategoryID("Savings"), *txn.OverflowFromID)
	require.Equal(t, database.CategoryID("Needs"), txn.CategoryID)

	cats, err := svc.CategoryBalances(ctx)
	require.NoError(t, err)
	// Single absorber: Needs keeps its full allocation.
	require.True(t, balanceFor(t, cats, "Needs").Balance.Available.Equal(amt(300_000)))
	require.True(t, balanceFor(t, cats, "Unexpected").Balance.Available.Equal(amt(100_000)))
	require.True(t, balanceFor(t, cats, "Savings").Balance.Available.Equal(amt(180_000)))
	require.True(t, balanceFor(t, cats, "Savings").Balance.Spent.Equal(amt(320_000)))
}

func TestSpendOverdraftAtTerminalWarns(t *testing.T) {
	t.Parallel()

	ctx, svc, _ := newTestService(t)
	_, err := svc.AddFunds(ctx, amt(1_000_000))
	require.NoError(t, err)

	_, warning, err := svc.Spend(ctx, "Needs", amt(2_000_000), "hospital")
	require.NoError(t, err, "overdraft must record, not fail")
	require.NotNil(t, warning)
	require.True(t, warning.Shortfall.Equal(amt(1_500_000)))

	cats, err := svc.CategoryBalances(ctx)
	require.NoError(t, err)
	require.True(t, balanceFor(t, cats, "Savings").Balance.Available.Equal(amt(-1_500_000)))
}

func TestSpendUnknownCategorySuggestsClosest(t *testing.T) {
	t.Parallel()

	ctx, svc, db := newTestService(t)
	_, err := svc.AddFunds(ctx, amt(1000))
	require.NoError(t, err)

	_, _, err = svc.Spend(ctx, "Neds", amt(10), "")
	var notFound *CategoryNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "Needs", notFound.Suggestion)

	// A failed spend leaves no trace.
	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count))
	require.Zero(t, count)
}

func TestRolloverSweepsIntoSavings(t *testing.T) {
	t.Parallel()

	ctx, svc, _ := newTestService(t)
	_, err := svc.AddFunds(ctx, amt(1_000_000))
	require.NoError(t, err)
	_, _, err = svc.Spend(ctx, "Needs", amt(120_000), "groceries")
	require.NoError(t, err)

	// Leftovers: Needs 180k + Wants 50k + Culture 50k + Unexpected 100k.
	fund, err := svc.AddFunds(ctx, amt(1_000_000))
	require.NoError(t, err)
	require.True(t, fund.RolloverSwept.Equal(amt(380_000)), "got %s", fund.RolloverSwept)

	cats, err := svc.CategoryBalances(ctx)
	require.NoError(t, err)
	require.True(t, balanceFor(t, cats, "Savings").Balance.Allocated.Equal(amt(880_000)))
	for _, cb := range cats {
		require.True(t, cb.Balance.Spent.IsZero(), "%s spent not reset", cb.Category.Name)
		require.True(t, cb.Balance.Available.Equal(cb.Balance.Allocated.Sub(cb.Balance.Spent)))
	}
}

func TestUpdateLimitReportsNewTotal(t *testing.T) {
	t.Parallel()

	ctx, svc, _ := newTestService(t)

	total, err := svc.UpdateLimit(ctx, "Wants", pctDec(t, "15"))
	require.NoError(t, err)
	require.True(t, total.Equal(amt(110)), "got %s", total)

	_, err = svc.UpdateLimit(ctx, "Wants", pctDec(t, "101"))
	require.ErrorIs(t, err, ErrLimitOutOfRange)
	_, err = svc.UpdateLimit(ctx, "Wants", pctDec(t, "-1"))
	require.ErrorIs(t, err, ErrLimitOutOfRange)
}

func TestSetOverflowTargetValidatesGraph(t *testing.T) {
	t.Parallel()

	ctx, svc, _ := newTestService(t)

	// Savings -> Needs would leave no terminal.
	err := svc.SetOverflowTarget(ctx, "Savings", "Needs")
	var noTerm *budget.NoTerminalError
	require.ErrorAs(t, err, &noTerm)

	// Needs -> Wants is fine; Wants still drains to Savings.
	require.NoError(t, svc.SetOverflowTarget(ctx, "Needs", "Wants"))
	_, err = svc.AddFunds(ctx, amt(100))
	require.NoError(t, err)
	txn, _, err := svc.Spend(ctx, "Needs", amt(31), "")
	require.NoError(t, err)
	require.Equal(t, database.CategoryID("Savings"), *txn.OverflowFromID)
}

func TestResetRestoresDefaults(t *testing.T) {
	t.Parallel()

	ctx, svc, db := newTestService(t)
	_, err := svc.AddFunds(ctx, amt(500))
	require.NoError(t, err)
	_, _, err = svc.Spend(ctx, "Wants", amt(10), "coffee")
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))

	for _, table := range []string{"transactions", "funds"} {
		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count))
		require.Zero(t, count, table)
	}
	cats, err := svc.CategoryBalances(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 5)
	for _, cb := range cats {
		require.True(t, cb.Balance.Available.IsZero())
	}
}

func pctDec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}
