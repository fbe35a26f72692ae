package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// ReportService builds daily and range reports from the store. Both entry
// points are pure reads: the same arguments with no intervening writes
// produce the same report.
type ReportService struct {
	store ledger.Store
}

func NewReportService(store ledger.Store) *ReportService {
	return &ReportService{store: store}
}

// Daily reports a single calendar day. The opening balance is the balance
// as of the end of the previous day; the closing balance is opening +
// receipts - payments of the day.
func (s *ReportService) Daily(ctx context.Context, date core.Date) (core.DailyReport, error) {
	if date.IsZero() {
		return core.DailyReport{}, &core.ValidationError{Field: "date", Reason: "is required"}
	}

	opening, err := balanceAsOf(ctx, s.store, date.PrevDay())
	if err != nil {
		return core.DailyReport{}, fmt.Errorf("opening balance: %w", err)
	}

	totals, err := s.store.SumByType(ctx, ledger.TransactionFilter{Date: date})
	if err != nil {
		return core.DailyReport{}, fmt.Errorf("day totals: %w", err)
	}

	rows, err := s.store.ListTransactions(ctx, ledger.TransactionFilter{Date: date}, ledger.ListOptions{Ascending: true})
	if err != nil {
		return core.DailyReport{}, fmt.Errorf("day transactions: %w", err)
	}

	return core.DailyReport{
		Date:             date,
		OpeningBalance:   opening,
		TotalReceipts:    totals.Receipts,
		TotalPayments:    totals.Payments,
		ClosingBalance:   opening.Add(totals.Net()),
		Transactions:     rows,
		TransactionCount: len(rows),
	}, nil
}

// Range reports the inclusive date range [start, end]. A start after end is
// not an error: every query over the inverted range matches nothing, so the
// report comes back with zero totals and empty listings.
func (s *ReportService) Range(ctx context.Context, start, end core.Date) (core.RangeReport, error) {
	if start.IsZero() {
		return core.RangeReport{}, &core.ValidationError{Field: "start_date", Reason: "is required"}
	}
	if end.IsZero() {
		return core.RangeReport{}, &core.ValidationError{Field: "end_date", Reason: "is required"}
	}

	opening, err := balanceAsOf(ctx, s.store, start.PrevDay())
	if err != nil {
		return core.RangeReport{}, fmt.Errorf("opening balance: %w", err)
	}

	filter := ledger.TransactionFilter{StartDate: start, EndDate: end}

	var (
		totals    core.PeriodTotals
		rows      []core.Transaction
		breakdown []core.DaySummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.SumByType(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.store.ListTransactions(gctx, filter, ledger.ListOptions{Ascending: true})
		return err
	})
	g.Go(func() error {
		var err error
		breakdown, err = s.store.DailyTotals(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.RangeReport{}, fmt.Errorf("range aggregates: %w", err)
	}

	return core.RangeReport{
		StartDate:        start,
		EndDate:          end,
		OpeningBalance:   opening,
		TotalReceipts:    totals.Receipts,
		TotalPayments:    totals.Payments,
		ClosingBalance:   opening.Add(totals.Net()),
		Transactions:     rows,
		DailyBreakdown:   breakdown,
		TransactionCount: len(rows),
	}, nil
}

// Dashboard summarizes the ledger for the landing page: current balance,
// today's activity, all-time activity and the ten most recent entries.
func (s *ReportService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("read settings: %w", err)
	}

	balance, err := currentBalance(ctx, s.store)
	if err != nil {
		return core.Dashboard{}, err
	}

	today := core.Today()
	todayFilter := ledger.TransactionFilter{Date: today}

	todayTotals, err := s.store.SumByType(ctx, todayFilter)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("today totals: %w", err)
	}
	todayCount, err := s.store.CountTransactions(ctx, todayFilter)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("today count: %w", err)
	}

	allTotals, err := s.store.SumByType(ctx, ledger.TransactionFilter{})
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("all-time totals: %w", err)
	}
	allCount, err := s.store.CountTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("all-time count: %w", err)
	}

	recent, err := s.store.ListTransactions(ctx, ledger.TransactionFilter{}, ledger.ListOptions{Limit: 10})
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("recent transactions: %w", err)
	}

	return core.Dashboard{
		CurrentBalance: balance,
		InitialBalance: settings.InitialBalance,
		Today: core.DashboardPeriod{
			Date:             today.String(),
			Receipts:         todayTotals.Receipts,
			Payments:         todayTotals.Payments,
			TransactionCount: todayCount,
		},
		AllTime: core.DashboardPeriod{
			Receipts:         allTotals.Receipts,
			Payments:         allTotals.Payments,
			TransactionCount: allCount,
		},
		RecentTransactions: recent,
	}, nil
}
