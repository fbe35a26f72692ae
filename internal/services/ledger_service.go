package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// EventPublisher publishes ledger events for external consumers. Publishing
// is best effort: a failed publish never fails the originating request.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, id string, txType string) error
}

// LedgerService owns the write path and the balance reads of the ledger.
type LedgerService struct {
	store  ledger.Store
	events EventPublisher
}

func NewLedgerService(store ledger.Store, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
	}
}

// CurrentBalance returns initial balance + receipts - payments over the
// whole ledger as of now.
func (s *LedgerService) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	return currentBalance(ctx, s.store)
}

// BalanceAsOf returns the balance including all transactions whose calendar
// day is on or before the given date.
func (s *LedgerService) BalanceAsOf(ctx context.Context, date core.Date) (decimal.Decimal, error) {
	if date.IsZero() {
		return decimal.Zero, &core.ValidationError{Field: "date", Reason: "is required"}
	}
	return balanceAsOf(ctx, s.store, date)
}

// CreateTransaction validates and appends a new ledger entry, returning the
// persisted transaction and the balance recomputed after the insert. Callers
// must use the returned balance; any balance read before the call may be
// stale.
//
// A payment exceeding the current balance fails with
// *core.InsufficientBalanceError and leaves the ledger untouched; the check
// and the insert run in a single store transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, decimal.Decimal, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, decimal.Zero, err
	}

	now := time.Now().UTC()
	tx := core.Transaction{
		ID:              uuid.NewString(),
		Type:            in.Type,
		Amount:          in.Amount,
		AddressID:       in.AddressID,
		AddressName:     strings.TrimSpace(in.AddressName),
		Description:     strings.TrimSpace(in.Description),
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		CreatedAt:       now,
		CreatedBy:       core.DefaultOperator,
	}
	if tx.ReferenceNumber == "" {
		tx.ReferenceNumber = generateReference(tx.Type, now)
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, decimal.Zero, err
	}

	balance, err := currentBalance(ctx, s.store)
	if err != nil {
		return core.Transaction{}, decimal.Zero, fmt.Errorf("recompute balance: %w", err)
	}

	s.publishCreated(ctx, tx)

	return tx, balance, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Pagination describes one page of a transaction listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// TransactionPage is a filtered, paginated slice of the ledger, newest
// first.
type TransactionPage struct {
	Transactions []core.Transaction `json:"transactions"`
	Pagination   Pagination         `json:"pagination"`
}

func (s *LedgerService) ListTransactions(ctx context.Context, f ledger.TransactionFilter, page, limit int) (TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	total, err := s.store.CountTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := s.store.ListTransactions(ctx, f, ledger.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	return TransactionPage{
		Transactions: rows,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// SettingsWithBalance pairs the settings record with the derived current
// balance.
type SettingsWithBalance struct {
	core.Settings
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

func (s *LedgerService) Settings(ctx context.Context) (SettingsWithBalance, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return SettingsWithBalance{}, fmt.Errorf("read settings: %w", err)
	}

	balance, err := currentBalance(ctx, s.store)
	if err != nil {
		return SettingsWithBalance{}, err
	}

	return SettingsWithBalance{Settings: settings, CurrentBalance: balance}, nil
}

func (s *LedgerService) SetInitialBalance(ctx context.Context, balance decimal.Decimal) (SettingsWithBalance, error) {
	if balance.IsNegative() {
		return SettingsWithBalance{}, &core.ValidationError{Field: "initial_balance", Reason: "must be 0 or greater"}
	}
	if !balance.Equal(balance.Round(2)) {
		return SettingsWithBalance{}, &core.ValidationError{Field: "initial_balance", Reason: "must have at most 2 decimal places"}
	}

	settings, err := s.store.UpdateInitialBalance(ctx, balance)
	if err != nil {
		return SettingsWithBalance{}, fmt.Errorf("update initial balance: %w", err)
	}

	current, err := currentBalance(ctx, s.store)
	if err != nil {
		return SettingsWithBalance{}, err
	}

	return SettingsWithBalance{Settings: settings, CurrentBalance: current}, nil
}

func (s *LedgerService) ListAddresses(ctx context.Context) ([]core.Address, error) {
	return s.store.ListAddresses(ctx)
}

func (s *LedgerService) GetAddress(ctx context.Context, id string) (core.Address, error) {
	return s.store.GetAddress(ctx, id)
}

func (s *LedgerService) CreateAddress(ctx context.Context, in core.AddressInput) (core.Address, error) {
	if err := in.Validate(); err != nil {
		return core.Address{}, err
	}

	a := core.Address{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Type:      strings.TrimSpace(in.Type),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}

	if err := s.store.CreateAddress(ctx, a); err != nil {
		return core.Address{}, fmt.Errorf("create address: %w", err)
	}
	return a, nil
}

func (s *LedgerService) UpdateAddress(ctx context.Context, id string, in core.AddressInput) (core.Address, error) {
	if err := in.Validate(); err != nil {
		return core.Address{}, err
	}

	existing, err := s.store.GetAddress(ctx, id)
	if err != nil {
		return core.Address{}, err
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.Type = strings.TrimSpace(in.Type)
	existing.Phone = strings.TrimSpace(in.Phone)
	existing.Email = strings.TrimSpace(in.Email)
	existing.Notes = strings.TrimSpace(in.Notes)

	if err := s.store.UpdateAddress(ctx, existing); err != nil {
		return core.Address{}, err
	}
	return existing, nil
}

func (s *LedgerService) DeleteAddress(ctx context.Context, id string) error {
	return s.store.DeactivateAddress(ctx, id)
}

func (s *LedgerService) publishCreated(ctx context.Context, tx core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionCreated(ctx, tx.ID, string(tx.Type)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", tx.ID, "error", err)
	}
}

// generateReference derives a human reference like "REC-1719848450123" from
// the type prefix and the creation instant in epoch milliseconds.
func generateReference(t core.TransactionType, at time.Time) string {
	return fmt.Sprintf("%s-%d", t.ReferencePrefix(), at.UnixMilli())
}
