// Package budget implements the kakeibo allocation and overflow engine:
// income is split across categories by configured percentages, unspent
// balances roll into the terminal savings category on the next income
// event, and expenses cascade through a configured overflow chain when
// their category cannot cover them.
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a configured spending category. The engine treats the set of
// categories as a read-only snapshot for the duration of one operation.
type Category struct {
	ID              string
	Name            string
	LimitPercentage decimal.Decimal
	OverflowToID    *string
	SortOrder       int
}

// Terminal reports whether the category has no overflow target, making it
// the final absorber of its chain.
func (c Category) Terminal() bool {
	return c.OverflowToID == nil
}

// Balance is the per-category ledger row. Available == Allocated - Spent
// holds after every mutation the engine produces.
type Balance struct {
	CategoryID  string
	Allocated   decimal.Decimal
	Spent       decimal.Decimal
	Available   decimal.Decimal
	LastUpdated time.Time
}

// Fund records one income event and the rollover folded into it.
type Fund struct {
	ID            string
	Amount        decimal.Decimal
	RolloverSwept decimal.Decimal
	AddedAt       time.Time
}

// Transaction records one expense. CategoryID is the category the expense
// was charged against; OverflowFromID is set to the absorbing category when
// the deduction landed elsewhere in the overflow chain.
type Transaction struct {
	ID             string
	CategoryID     string
	Amount         decimal.Decimal
	Description    string
	OverflowFromID *string
	CreatedAt      time.Time
}

// Ledger is an immutable snapshot of category balances. The engine reads a
// ledger and returns replacement rows; it never mutates the snapshot, so a
// failed commit leaves the caller free to retry from fresh state.
type Ledger struct {
	balances map[string]Balance
}

// NewLedger builds a snapshot from balance rows. Later rows win on
// duplicate category ids.
func NewLedger(balances []Balance) *Ledger {
	m := make(map[string]Balance, len(balances))
	for _, b := range balances {
		m[b.CategoryID] = b
	}
	return &Ledger{balances: m}
}

// Balance returns the row for a category. Categories without a stored row
// report a zero balance, which matches a freshly seeded ledger.
func (l *Ledger) Balance(categoryID string) Balance {
	if b, ok := l.balances[categoryID]; ok {
		return b
	}
	return Balance{
		CategoryID: categoryID,
		Allocated:  decimal.Zero,
		Spent:      decimal.Zero,
		Available:  decimal.Zero,
	}
}
