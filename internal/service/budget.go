// Package service orchestrates the budget engine against the store. Every
// ledger-mutating operation runs read-snapshot -> engine -> atomic commit
// under one mutex, so no operation ever computes from stale balances.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
	"github.com/jask/kakeibo/internal/database"
	"github.com/jask/kakeibo/internal/database/repository"
)

// ErrLimitOutOfRange rejects allocation percentages outside 0-100.
var ErrLimitOutOfRange = errors.New("limit percentage must be between 0 and 100")

// CategoryNotFoundError is returned when a category name does not match any
// configured category. Suggestion carries the closest known name, if any
// is close enough to be worth offering.
type CategoryNotFoundError struct {
	Name       string
	Suggestion string
}

func (e *CategoryNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("no category named %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("no category named %q", e.Name)
}

// CategoryBalance pairs a category with its current ledger row.
type CategoryBalance struct {
	Category budget.Category
	Balance  budget.Balance
}

// BudgetService serializes all ledger-mutating operations. The mutex makes
// the snapshot -> compute -> commit sequence a critical section; reads can
// run outside it because committed state is always consistent.
type BudgetService struct {
	DB           *sql.DB
	Categories   *repository.CategoryRepo
	Balances     *repository.BalanceRepo
	Funds        *repository.FundRepo
	Transactions *repository.TransactionRepo
	Log          *slog.Logger

	mu sync.Mutex
}

// NewBudgetService wires a service over one database handle.
func NewBudgetService(db *sql.DB, logger *slog.Logger) *BudgetService {
	return &BudgetService{
		DB:           db,
		Categories:   repository.NewCategoryRepo(db),
		Balances:     repository.NewBalanceRepo(db),
		Funds:        repository.NewFundRepo(db),
		Transactions: repository.NewTransactionRepo(db),
		Log:          logger,
	}
}

func (s *BudgetService) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// snapshot loads the configuration graph and ledger as one consistent read.
func (s *BudgetService) snapshot(ctx context.Context) (*budget.Graph, *budget.Ledger, error) {
	cats, err := s.Categories.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load categories: %w", err)
	}
	graph, err := budget.NewGraph(cats)
	if err != nil {
		return nil, nil, err
	}
	balances, err := s.Balances.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load balances: %w", err)
	}
	return graph, budget.NewLedger(balances), nil
}

// AddFunds records an income event: sweeps rollover, resets spending and
// reallocates every category by its percentage, all committed atomically.
func (s *BudgetService) AddFunds(ctx context.Context, amount decimal.Decimal) (budget.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ledger, err := s.snapshot(ctx)
	if err != nil {
		return budget.Fund{}, err
	}

	fund, balances, err := budget.Allocate(amount, database.Now(), graph, ledger)
	if err != nil {
		return budget.Fund{}, err
	}

	err = database.WithTx(s.DB, func(tx *sql.Tx) error {
		return repository.CommitAllocation(ctx, tx, s.Funds, s.Balances, fund, balances)
	})
	if err != nil {
		return budget.Fund{}, fmt.Errorf("commit allocation: %w", err)
	}

	s.logger().Info("funds allocated",
		"amount", fund.Amount.String(),
		"rollover_swept", fund.RolloverSwept.String(),
		"categories", len(balances))
	return fund, nil
}

// Spend charges an expense to the named category, letting it overflow
// through the configured chain. The returned warning is non-nil when the
// terminal category absorbed an amount it did not have.
func (s *BudgetService) Spend(ctx context.Context, categoryName string, amount decimal.Decimal, description string) (budget.Transaction, *budget.Overspent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ledger, err := s.snapshot(ctx)
	if err != nil {
		return budget.Transaction{}, nil, err
	}

	cat, err := s.resolveCategory(graph, categoryName)
	if err != nil {
		return budget.Transaction{}, nil, err
	}

	txn, balances, warning, err := budget.Apply(cat.ID, amount, description, database.Now(), graph, ledger)
	if err != nil {
		return budget.Transaction{}, nil, err
	}

	err = database.WithTx(s.DB, func(tx *sql.Tx) error {
		return repository.CommitExpense(ctx, tx, s.Transactions, s.Balances, txn, balances)
	})
	if err != nil {
		return budget.Transaction{}, nil, fmt.Errorf("commit expense: %w", err)
	}

	logger := s.logger()
	if warning != nil {
		logger.Warn("expense overspent terminal category",
			"category", cat.Name,
			"amount", amount.String(),
			"shortfall", warning.Shortfall.String())
	} else {
		logger.Info("expense recorded",
			"category", cat.Name,
			"amount", amount.String(),
			"overflowed", txn.OverflowFromID != nil)
	}
	return txn, warning, nil
}

// CategoryBalances returns every category with its current balance, in
// display order.
func (s *BudgetService) CategoryBalances(ctx context.Context) ([]CategoryBalance, error) {
	graph, ledger, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cats := graph.Categories()
	out := make([]CategoryBalance, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryBalance{Category: c, Balance: ledger.Balance(c.ID)})
	}
	return out, nil
}

// UpdateLimit changes a category's allocation percentage and returns the
// new total across all categories so callers can warn when it drifts from
// 100.
func (s *BudgetService) UpdateLimit(ctx context.Context, categoryName string, limit decimal.Decimal) (decimal.Decimal, error) {
	if limit.IsNegative() || limit.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, ErrLimitOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, _, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	cat, err := s.resolveCategory(graph, categoryName)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.Categories.UpdateLimit(ctx, cat.ID, limit); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, c := range graph.Categories() {
		if c.ID == cat.ID {
			total = total.Add(limit)
		} else {
			total = total.Add(c.LimitPercentage)
		}
	}
	s.logger().Info("category limit updated",
		"category", cat.Name, "limit", limit.String(), "total", total.String())
	return total, nil
}

// SetOverflowTarget repoints where a category overflows to. An empty
// target name makes the category terminal. The change is validated against
// the whole graph before it is written, so cycles and terminal conflicts
// never reach the store.
func (s *BudgetService) SetOverflowTarget(ctx context.Context, categoryName, targetName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	graph, _, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	cat, err := s.resolveCategory(graph, categoryName)
	if err != nil {
		return err
	}

	var target *string
	if targetName != "" {
		t, err := s.resolveCategory(graph, targetName)
		if err != nil {
			return err
		}
		target = &t.ID
	}

	// Re-validate the edited set before touching the store.
	edited := graph.Categories()
	for i := range edited {
		if edited[i].ID == cat.ID {
			edited[i].OverflowToID = target
		}
	}
	next, err := budget.NewGraph(edited)
	if err != nil {
		return err
	}
	for _, c := range next.Categories() {
		if _, err := next.ChainFrom(c.ID); err != nil {
			return err
		}
	}

	if err := s.Categories.UpdateOverflowTarget(ctx, cat.ID, target); err != nil {
		return err
	}
	s.logger().Info("overflow target updated", "category", cat.Name, "target", targetName)
	return nil
}

// resolveCategory matches a name case-insensitively and, on a miss, offers
// the closest configured name when the edit distance is small enough to
// look like a typo.
func (s *BudgetService) resolveCategory(graph *budget.Graph, name string) (budget.Category, error) {
	want := strings.TrimSpace(name)
	if c, ok := graph.CategoryByName(want); ok {
		return c, nil
	}
	for _, c := range graph.Categories() {
		if strings.EqualFold(c.Name, want) {
			return c, nil
		}
	}

	best := ""
	bestDist := 0
	for _, c := range graph.Categories() {
		dist := levenshtein.ComputeDistance(strings.ToLower(want), strings.ToLower(c.Name))
		if best == "" || dist < bestDist {
			best, bestDist = c.Name, dist
		}
	}
	notFound := &CategoryNotFoundError{Name: want}
	if best != "" && bestDist <= 1+len(want)/4 {
		notFound.Suggestion = best
	}
	return budget.Category{}, notFound
}
