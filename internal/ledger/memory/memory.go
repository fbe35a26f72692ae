// Package memory provides an in-process ledger store. It backs the default
// backend for local development and the service tests; data does not survive
// a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	settings     core.Settings
	transactions []core.Transaction
	addresses    map[string]core.Address
}

func New() *Store {
	return &Store{
		settings:  core.Settings{InitialBalance: decimal.Zero, UpdatedAt: time.Now().UTC()},
		addresses: make(map[string]core.Address),
	}
}

var _ ledger.Store = (*Store)(nil)

// InsertTransaction appends the transaction. The insufficient-balance check
// for payments and the append happen under one lock, so concurrent payments
// cannot drive the balance negative.
func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.Type == core.Payment {
		balance := s.balanceLocked(core.Date{})
		if tx.Amount.GreaterThan(balance) {
			return &core.InsufficientBalanceError{Balance: balance}
		}
	}

	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter, opts ledger.ListOptions) ([]core.Transaction, error) {
	s.mu.Lock()
	matched := s.filterLocked(f)
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if opts.Ascending {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []core.Transaction{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *Store) CountTransactions(_ context.Context, f ledger.TransactionFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filterLocked(f)), nil
}

func (s *Store) SumByType(_ context.Context, f ledger.TransactionFilter) (core.PeriodTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := core.PeriodTotals{Receipts: decimal.Zero, Payments: decimal.Zero}
	for _, tx := range s.filterLocked(f) {
		switch tx.Type {
		case core.Receipt:
			totals.Receipts = totals.Receipts.Add(tx.Amount)
		case core.Payment:
			totals.Payments = totals.Payments.Add(tx.Amount)
		}
	}
	return totals, nil
}

func (s *Store) DailyTotals(_ context.Context, start, end core.Date) ([]core.DaySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[string]*core.DaySummary)
	for _, tx := range s.filterLocked(ledger.TransactionFilter{StartDate: start, EndDate: end}) {
		day := core.DateOf(tx.CreatedAt)
		summary, ok := byDay[day.String()]
		if !ok {
			summary = &core.DaySummary{
				Date:          day,
				TotalReceipts: decimal.Zero,
				TotalPayments: decimal.Zero,
			}
			byDay[day.String()] = summary
		}
		switch tx.Type {
		case core.Receipt:
			summary.TotalReceipts = summary.TotalReceipts.Add(tx.Amount)
		case core.Payment:
			summary.TotalPayments = summary.TotalPayments.Add(tx.Amount)
		}
		summary.TransactionCount++
	}

	out := make([]core.DaySummary, 0, len(byDay))
	for _, summary := range byDay {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) Settings(_ context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *Store) UpdateInitialBalance(_ context.Context, balance decimal.Decimal) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.InitialBalance = balance
	s.settings.UpdatedAt = time.Now().UTC()
	return s.settings, nil
}

func (s *Store) ListAddresses(_ context.Context) ([]core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Address, 0, len(s.addresses))
	for _, a := range s.addresses {
		if a.Active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetAddress(_ context.Context, id string) (core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[id]
	if !ok {
		return core.Address{}, core.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAddress(_ context.Context, a core.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[a.ID] = a
	return nil
}

func (s *Store) UpdateAddress(_ context.Context, a core.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[a.ID]; !ok {
		return core.ErrNotFound
	}
	s.addresses[a.ID] = a
	return nil
}

func (s *Store) DeactivateAddress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[id]
	if !ok {
		return core.ErrNotFound
	}
	a.Active = false
	s.addresses[id] = a
	return nil
}

// balanceLocked computes initial balance + receipts - payments, optionally
// restricted to calendar days <= asOf. Callers must hold s.mu.
func (s *Store) balanceLocked(asOf core.Date) decimal.Decimal {
	balance := s.settings.InitialBalance
	for _, tx := range s.transactions {
		if !asOf.IsZero() && core.DateOf(tx.CreatedAt).After(asOf.Time) {
			continue
		}
		switch tx.Type {
		case core.Receipt:
			balance = balance.Add(tx.Amount)
		case core.Payment:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}

// filterLocked returns a copy of the transactions matching f. Callers must
// hold s.mu.
func (s *Store) filterLocked(f ledger.TransactionFilter) []core.Transaction {
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		day := core.DateOf(tx.CreatedAt)
		if !f.Date.IsZero() && !day.Equal(f.Date) {
			continue
		}
		if !f.StartDate.IsZero() && day.Before(f.StartDate.Time) {
			continue
		}
		if !f.EndDate.IsZero() && day.After(f.EndDate.Time) {
			continue
		}
		if f.AddressID != "" && tx.AddressID != f.AddressID {
			continue
		}
		out = append(out, tx)
	}
	return out
}
