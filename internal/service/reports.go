package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/database/repository"
)

// DateRange names a reporting window ending now.
type DateRange int

const (
	RangeToday DateRange = iota
	RangeLast7Days
	RangeMonth
	RangeYear
	RangeFiveYears
)

var rangeNames = map[DateRange]string{
	RangeToday:     "today",
	RangeLast7Days: "week",
	RangeMonth:     "month",
	RangeYear:      "year",
	RangeFiveYears: "5y",
}

func (r DateRange) String() string {
	if n, ok := rangeNames[r]; ok {
		return n
	}
	return "unknown"
}

// ParseDateRange maps a CLI argument to a range. "week" and "7d" are
// accepted for the seven-day window.
func ParseDateRange(s string) (DateRange, error) {
	switch s {
	case "today":
		return RangeToday, nil
	case "week", "7d":
		return RangeLast7Days, nil
	case "month":
		return RangeMonth, nil
	case "year":
		return RangeYear, nil
	case "5y":
		return RangeFiveYears, nil
	}
	return 0, fmt.Errorf("unknown range %q (want today, week, month, year or 5y)", s)
}

// Start returns the inclusive lower bound of the window relative to now.
// Today means midnight in now's location, not the last 24 hours.
func (r DateRange) Start(now time.Time) time.Time {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case RangeLast7Days:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, -1, 0)
	case RangeYear:
		return now.AddDate(-1, 0, 0)
	case RangeFiveYears:
		return now.AddDate(-5, 0, 0)
	}
	return time.Time{}
}

// Summary aggregates lifetime totals with the current per-category state.
type Summary struct {
	TotalAdded     decimal.Decimal
	TotalSpent     decimal.Decimal
	TotalAvailable decimal.Decimal
	Categories     []CategoryBalance
}

// Report reads transaction history and summary figures. Reads take no lock;
// committed state is always consistent.
func (s *BudgetService) Report(ctx context.Context, r DateRange, now time.Time) ([]repository.TransactionRecord, error) {
	return s.Transactions.ListRange(ctx, r.Start(now), now)
}

// Summarize computes lifetime totals alongside the live balance sheet.
func (s *BudgetService) Summarize(ctx context.Context) (Summary, error) {
	added, err := s.Funds.TotalAdded(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("total added: %w", err)
	}
	spent, err := s.Transactions.TotalSpent(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("total spent: %w", err)
	}
	cats, err := s.CategoryBalances(ctx)
	if err != nil {
		return Summary{}, err
	}

	available := decimal.Zero
	for _, cb := range cats {
		available = available.Add(cb.Balance.Available)
	}
	return Summary{
		TotalAdded:     added,
		TotalSpent:     spent,
		TotalAvailable: available,
		Categories:     cats,
	}, nil
}
