package repository

import (
	"context"
	"database/sql"

	"github.com/jask/kakeibo/internal/budget"
)

// CommitAllocation writes an income event and its replacement balance rows
// inside the caller's transaction. Partial application is impossible: any
// failed write fails the whole transaction.
func CommitAllocation(ctx context.Context, tx *sql.Tx, funds *FundRepo, balances *BalanceRepo, fund budget.Fund, rows []budget.Balance) error {
	if err := funds.InsertTx(ctx, tx, fund); err != nil {
		return err
	}
	for _, b := range rows {
		if err := balances.UpsertTx(ctx, tx, b); err != nil {
			return err
		}
	}
	return nil
}

// CommitExpense writes an expense and the absorber's updated balance row
// inside the caller's transaction.
func CommitExpense(ctx context.Context, tx *sql.Tx, txns *TransactionRepo, balances *BalanceRepo, txn budget.Transaction, rows []budget.Balance) error {
	if err := txns.InsertTx(ctx, tx, txn); err != nil {
		return err
	}
	for _, b := range rows {
		if err := balances.UpsertTx(ctx, tx, b); err != nil {
			return err
		}
	}
	return nil
}
