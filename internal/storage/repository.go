// Package storage provides the durable SQLite ledger store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection serializes all access. It keeps the payment
	// balance-check-then-insert transaction free of writer races and is the
	// sane default for SQLite anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertTransaction appends a transaction to the ledger. Payments run the
// insufficient-balance check and the insert inside one SQL transaction, so
// a concurrent payment committed in between cannot drive the balance
// negative.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	q := r.queries.WithTx(dbtx)

	if tx.Type == core.Payment {
		balance, err := balanceWith(ctx, q, ledger.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("compute balance: %w", err)
		}
		if tx.Amount.GreaterThan(balance) {
			return &core.InsufficientBalanceError{Balance: balance}
		}
	}

	if err := q.InsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.StringFixed(2),
		"reference_number", tx.ReferenceNumber)

	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := r.queries.GetTransaction(ctx, id)
	if err == core.ErrNotFound {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ledger.TransactionFilter, opts ledger.ListOptions) ([]core.Transaction, error) {
	out, err := r.queries.ListTransactions(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, f ledger.TransactionFilter) (int, error) {
	count, err := r.queries.CountTransactions(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) SumByType(ctx context.Context, f ledger.TransactionFilter) (core.PeriodTotals, error) {
	totals, err := r.queries.SumByType(ctx, f)
	if err != nil {
		return core.PeriodTotals{}, fmt.Errorf("sum transactions: %w", err)
	}
	return totals, nil
}

func (r *SQLiteRepository) DailyTotals(ctx context.Context, start, end core.Date) ([]core.DaySummary, error) {
	out, err := r.queries.DailyTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Settings(ctx context.Context) (core.Settings, error) {
	settings, err := r.queries.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

func (r *SQLiteRepository) UpdateInitialBalance(ctx context.Context, balance decimal.Decimal) (core.Settings, error) {
	now := time.Now().UTC()
	if err := r.queries.UpdateInitialBalance(ctx, core.AmountToMinorUnits(balance), now); err != nil {
		return core.Settings{}, fmt.Errorf("update initial balance: %w", err)
	}

	slog.InfoContext(ctx, "Initial balance updated", "initial_balance", balance.StringFixed(2))

	return r.Settings(ctx)
}

func (r *SQLiteRepository) ListAddresses(ctx context.Context) ([]core.Address, error) {
	out, err := r.queries.ListAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetAddress(ctx context.Context, id string) (core.Address, error) {
	a, err := r.queries.GetAddress(ctx, id)
	if err == core.ErrNotFound {
		return core.Address{}, err
	}
	if err != nil {
		return core.Address{}, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) CreateAddress(ctx context.Context, a core.Address) error {
	if err := r.queries.InsertAddress(ctx, a); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateAddress(ctx context.Context, a core.Address) error {
	affected, err := r.queries.UpdateAddress(ctx, a)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeactivateAddress(ctx context.Context, id string) error {
	affected, err := r.queries.DeactivateAddress(ctx, id)
	if err != nil {
		return fmt.Errorf("deactivate address: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// balanceWith computes initial balance + receipts - payments over the
// filtered transaction set using the given query handle (which may be bound
// to an open SQL transaction).
func balanceWith(ctx context.Context, q *Queries, f ledger.TransactionFilter) (decimal.Decimal, error) {
	settings, err := q.GetSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	totals, err := q.SumByType(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	return settings.InitialBalance.Add(totals.Net()), nil
}
