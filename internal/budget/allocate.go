package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocate distributes an income event across all categories and sweeps
// unspent non-terminal balances into the terminal category. It returns the
// fund record and the full replacement balance set; the caller commits both
// as one atomic batch or discards them together.
//
// Sweep rule: each non-terminal category contributes max(available, 0).
// A category driven negative by overflow absorption contributes nothing;
// its deficit stays with it and is wiped by the reset below, so overdrafts
// never shrink the rollover pool.
func Allocate(amount decimal.Decimal, now time.Time, g *Graph, l *Ledger) (Fund, []Balance, error) {
	if !amount.IsPositive() {
		return Fund{}, nil, ErrNonPositiveAmount
	}
	terminal, err := g.Terminal()
	if err != nil {
		return Fund{}, nil, err
	}

	rollover := decimal.Zero
	for _, id := range g.NonTerminalIDs() {
		if avail := l.Balance(id).Available; avail.IsPositive() {
			rollover = rollover.Add(avail)
		}
	}

	balances := make([]Balance, 0, len(g.Categories()))
	for _, c := range g.Categories() {
		// Shift(-2) divides by 100 without introducing division rounding.
		allocated := amount.Mul(c.LimitPercentage.Shift(-2))
		if c.ID == terminal.ID {
			allocated = allocated.Add(rollover)
		}
		balances = append(balances, Balance{
			CategoryID:  c.ID,
			Allocated:   allocated,
			Spent:       decimal.Zero,
			Available:   allocated,
			LastUpdated: now,
		})
	}

	fund := Fund{
		ID:            uuid.NewString(),
		Amount:        amount,
		RolloverSwept: rollover,
		AddedAt:       now,
	}
	return fund, balances, nil
}
