package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// currentBalance derives the ledger balance from the store: initial balance
// plus all receipts minus all payments. It always reads the store, never a
// cache, so a balance read after a committed write reflects that write.
func currentBalance(ctx context.Context, store ledger.Store) (decimal.Decimal, error) {
	return balanceOver(ctx, store, ledger.TransactionFilter{})
}

// balanceAsOf restricts the balance formula to transactions on calendar days
// up to and including asOf. A date before the first transaction yields the
// initial balance.
func balanceAsOf(ctx context.Context, store ledger.Store, asOf core.Date) (decimal.Decimal, error) {
	return balanceOver(ctx, store, ledger.TransactionFilter{EndDate: asOf})
}

func balanceOver(ctx context.Context, store ledger.Store, f ledger.TransactionFilter) (decimal.Decimal, error) {
	settings, err := store.Settings(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read settings: %w", err)
	}

	totals, err := store.SumByType(ctx, f)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}

	return settings.InitialBalance.Add(totals.Net()), nil
}
