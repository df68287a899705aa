package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Overspent reports that no category in the overflow chain could cover an
// expense, so the terminal category absorbed it and went negative. The
// expense still succeeds: the shortfall stays visible in the ledger instead
// of the transaction being refused.
type Overspent struct {
	CategoryID string
	Shortfall  decimal.Decimal
}

// Apply resolves an expense against the ledger by walking the overflow
// chain of the charged category. The first category whose available balance
// covers the full amount absorbs it; if none can, the terminal category
// absorbs it anyway and an Overspent warning is returned alongside the
// result. Exactly one balance row changes per expense.
func Apply(categoryID string, amount decimal.Decimal, description string, now time.Time, g *Graph, l *Ledger) (Transaction, []Balance, *Overspent, error) {
	if !amount.IsPositive() {
		return Transaction{}, nil, nil, ErrNonPositiveAmount
	}

	chain, err := g.ChainFrom(categoryID)
	if err != nil {
		return Transaction{}, nil, nil, err
	}

	absorberID := ""
	for _, id := range chain {
		if l.Balance(id).Available.GreaterThanOrEqual(amount) {
			absorberID = id
			break
		}
	}

	var warning *Overspent
	if absorberID == "" {
		// Forced absorption at the terminal: the chain ends there and the
		// deduction applies in full.
		absorberID = chain[len(chain)-1]
		warning = &Overspent{
			CategoryID: absorberID,
			Shortfall:  amount.Sub(l.Balance(absorberID).Available),
		}
	}

	prev := l.Balance(absorberID)
	updated := Balance{
		CategoryID:  absorberID,
		Allocated:   prev.Allocated,
		Spent:       prev.Spent.Add(amount),
		Available:   prev.Available.Sub(amount),
		LastUpdated: now,
	}

	txn := Transaction{
		ID:          uuid.NewString(),
		CategoryID:  categoryID,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}
	if absorberID != categoryID {
		txn.OverflowFromID = &absorberID
	}
	return txn, []Balance{updated}, warning, nil
}
