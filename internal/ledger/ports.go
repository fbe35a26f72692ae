// Package ledger defines the narrow store ports the services are written
// against. Concrete backends (SQLite, in-memory) live in their own packages
// and are selected by the backend factory; the services never branch on the
// backend in use.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
)

// TransactionFilter restricts transaction queries. Zero values mean "no
// restriction". Date bounds compare by calendar day.
type TransactionFilter struct {
	Type      core.TransactionType
	Date      core.Date
	StartDate core.Date
	EndDate   core.Date
	AddressID string
}

// ListOptions controls ordering and paging of transaction listings.
// Limit 0 means no paging.
type ListOptions struct {
	Ascending bool
	Limit     int
	Offset    int
}

// TransactionStore is the append-only transaction log.
type TransactionStore interface {
	// InsertTransaction appends a transaction. For payments the
	// insufficient-balance check and the insert run in a single store
	// transaction; a payment larger than the current balance returns
	// *core.InsufficientBalanceError and inserts nothing.
	InsertTransaction(ctx context.Context, tx core.Transaction) error

	// GetTransaction returns core.ErrNotFound when no row matches.
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)

	ListTransactions(ctx context.Context, f TransactionFilter, opts ListOptions) ([]core.Transaction, error)
	CountTransactions(ctx context.Context, f TransactionFilter) (int, error)

	// SumByType returns the summed receipt and payment amounts over the
	// filtered set. Sums are exact: amounts are stored as integer minor
	// units.
	SumByType(ctx context.Context, f TransactionFilter) (core.PeriodTotals, error)

	// DailyTotals groups the transactions in [start, end] by calendar day,
	// ascending, omitting days without transactions.
	DailyTotals(ctx context.Context, start, end core.Date) ([]core.DaySummary, error)
}

// SettingsStore reads and writes the singleton settings record.
type SettingsStore interface {
	Settings(ctx context.Context) (core.Settings, error)
	UpdateInitialBalance(ctx context.Context, balance decimal.Decimal) (core.Settings, error)
}

// AddressStore manages the address book. Deletion is a soft deactivate.
type AddressStore interface {
	ListAddresses(ctx context.Context) ([]core.Address, error)
	GetAddress(ctx context.Context, id string) (core.Address, error)
	CreateAddress(ctx context.Context, a core.Address) error
	UpdateAddress(ctx context.Context, a core.Address) error
	DeactivateAddress(ctx context.Context, id string) error
}

// Store is the full surface a backend provides.
type Store interface {
	TransactionStore
	SettingsStore
	AddressStore
}
