package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func threeWayGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph([]Category{
		{ID: "needs", Name: "Needs", LimitPercentage: pct("50"), OverflowToID: ptr("savings"), SortOrder: 1},
		{ID: "wants", Name: "Wants", LimitPercentage: pct("30"), OverflowToID: ptr("savings"), SortOrder: 2},
		{ID: "savings", Name: "Savings", LimitPercentage: pct("20"), SortOrder: 3},
	})
	require.NoError(t, err)
	return g
}

func balanceByID(t *testing.T, balances []Balance, id string) Balance {
	t.Helper()
	for _, b := range balances {
		if b.CategoryID == id {
			return b
		}
	}
	t.Fatalf("no balance for %s", id)
	return Balance{}
}

func requireInvariant(t *testing.T, balances []Balance) {
	t.Helper()
	for _, b := range balances {
		require.True(t, b.Available.Equal(b.Allocated.Sub(b.Spent)),
			"category %s: available %s != allocated %s - spent %s",
			b.CategoryID, b.Available, b.Allocated, b.Spent)
	}
}

func TestAllocateFromZeroState(t *testing.T) {
	t.Parallel()

	g := threeWayGraph(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	fund, balances, err := Allocate(decimal.NewFromInt(1000), now, g, NewLedger(nil))
	require.NoError(t, err)
	require.True(t, fund.Amount.Equal(decimal.NewFromInt(1000)))
	require.True(t, fund.RolloverSwept.IsZero())
	require.Equal(t, now, fund.AddedAt)
	require.NotEmpty(t, fund.ID)

	require.Len(t, balances, 3)
	require.True(t, balanceByID(t, balances, "needs").Allocated.Equal(decimal.NewFromInt(500)))
	require.True(t, balanceByID(t, balances, "wants").Allocated.Equal(decimal.NewFromInt(300)))
	require.True(t, balanceByID(t, balances, "savings").Allocated.Equal(decimal.NewFromInt(200)))
	for _, b := range balances {
		require.True(t, b.Spent.IsZero())
	}
	requireInvariant(t, balances)
}

func TestAllocateRoundTripScenario(t *testing.T) {
	t.Parallel()

	g := threeWayGraph(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, balances, err := Allocate(decimal.NewFromInt(1000), now, g, NewLedger(nil))
	require.NoError(t, err)

	// Spend 200 on Needs: available 500 -> 300.
	ledger := NewLedger(balances)
	_, updated, warning, err := Apply("needs", decimal.NewFromInt(200), "groceries", now, g, ledger)
	require.NoError(t, err)
	require.Nil(t, warning)
	balances = mergeBalances(balances, updated)
	require.True(t, balanceByID(t, balances, "needs").Available.Equal(decimal.NewFromInt(300)))
	require.True(t, balanceByID(t, balances, "needs").Spent.Equal(decimal.NewFromInt(200)))

	// Next income: rollover = 300 (Needs leftover) + 300 (Wants unspent).
	later := now.AddDate(0, 1, 0)
	fund, balances, err := Allocate(decimal.NewFromInt(1000), later, g, NewLedger(balances))
	require.NoError(t, err)
	require.True(t, fund.RolloverSwept.Equal(decimal.NewFromInt(600)))
	require.True(t, balanceByID(t, balances, "needs").Allocated.Equal(decimal.NewFromInt(500)))
	require.True(t, balanceByID(t, balances, "wants").Allocated.Equal(decimal.NewFromInt(300)))
	require.True(t, balanceByID(t, balances, "savings").Allocated.Equal(decimal.NewFromInt(800)))
	for _, b := range balances {
		require.True(t, b.Spent.IsZero(), "spent not reset for %s", b.CategoryID)
	}
	requireInvariant(t, balances)
}

func TestAllocateConservation(t *testing.T) {
	t.Parallel()

	g, err := NewGraph(defaultCategories())
	require.NoError(t, err)
	now := time.Now().UTC()

	prior := []Balance{
		{CategoryID: "needs", Allocated: pct("300"), Spent: pct("120"), Available: pct("180")},
		{CategoryID: "wants", Allocated: pct("50"), Spent: pct("75"), Available: pct("-25")},
		{CategoryID: "culture", Allocated: pct("50"), Spent: pct("50"), Available: pct("0")},
		{CategoryID: "unexpected", Allocated: pct("100"), Spent: pct("0"), Available: pct("100")},
		{CategoryID: "savings", Allocated: pct("500"), Spent: pct("0"), Available: pct("500")},
	}

	amount := decimal.NewFromInt(2000)
	fund, balances, err := Allocate(amount, now, g, NewLedger(prior))
	require.NoError(t, err)

	// Only positive leftovers sweep; wants' -25 deficit contributes nothing.
	require.True(t, fund.RolloverSwept.Equal(decimal.NewFromInt(280)), "got %s", fund.RolloverSwept)

	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Allocated)
	}
	require.True(t, total.Equal(amount.Add(fund.RolloverSwept)),
		"allocated %s != amount %s + rollover %s", total, amount, fund.RolloverSwept)
	requireInvariant(t, balances)
}

func TestAllocateRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	g := threeWayGraph(t)
	for _, v := range []int64{0, -50} {
		_, _, err := Allocate(decimal.NewFromInt(v), time.Now(), g, NewLedger(nil))
		require.ErrorIs(t, err, ErrNonPositiveAmount)
	}
}

func TestAllocateFractionalPercentagesStayExact(t *testing.T) {
	t.Parallel()

	g, err := NewGraph([]Category{
		{ID: "a", Name: "A", LimitPercentage: pct("12.5"), OverflowToID: ptr("s"), SortOrder: 1},
		{ID: "b", Name: "B", LimitPercentage: pct("37.5"), OverflowToID: ptr("s"), SortOrder: 2},
		{ID: "s", Name: "S", LimitPercentage: pct("50"), SortOrder: 3},
	})
	require.NoError(t, err)

	amount, err := decimal.NewFromString("999.99")
	require.NoError(t, err)
	fund, balances, err := Allocate(amount, time.Now(), g, NewLedger(nil))
	require.NoError(t, err)

	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Allocated)
	}
	require.True(t, total.Equal(amount.Add(fund.RolloverSwept)))
}

func mergeBalances(all, updated []Balance) []Balance {
	out := make([]Balance, len(all))
	copy(out, all)
	for _, u := range updated {
		for i := range out {
			if out[i].CategoryID == u.CategoryID {
				out[i] = u
			}
		}
	}
	return out
}
