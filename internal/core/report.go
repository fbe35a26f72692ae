package core

import "github.com/shopspring/decimal"

// PeriodTotals holds the summed receipt and payment amounts of a period.
type PeriodTotals struct {
	Receipts decimal.Decimal `json:"total_receipts"`
	Payments decimal.Decimal `json:"total_payments"`
}

// Net returns receipts minus payments.
func (t PeriodTotals) Net() decimal.Decimal {
	return t.Receipts.Sub(t.Payments)
}

// DailyReport summarizes a single calendar day. The closing balance always
// equals opening + receipts - payments; a day with no transactions has zero
// totals and closing == opening.
type DailyReport struct {
	Date             Date            `json:"date"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	TotalReceipts    decimal.Decimal `json:"total_receipts"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	Transactions     []Transaction   `json:"transactions"`
	TransactionCount int             `json:"transaction_count"`
}

// DaySummary is one row of a range report's daily breakdown. Only days with
// at least one transaction appear; empty days are omitted, not zero-filled.
type DaySummary struct {
	Date             Date            `json:"date"`
	TotalReceipts    decimal.Decimal `json:"total_receipts"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	TransactionCount int             `json:"transaction_count"`
}

// RangeReport summarizes an inclusive date range.
type RangeReport struct {
	StartDate        Date            `json:"start_date"`
	EndDate          Date            `json:"end_date"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	TotalReceipts    decimal.Decimal `json:"total_receipts"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	Transactions     []Transaction   `json:"transactions"`
	DailyBreakdown   []DaySummary    `json:"daily_breakdown"`
	TransactionCount int             `json:"transaction_count"`
}

// DashboardPeriod aggregates one slice of the dashboard (today, all time).
type DashboardPeriod struct {
	Date             string          `json:"date,omitempty"`
	Receipts         decimal.Decimal `json:"receipts"`
	Payments         decimal.Decimal `json:"payments"`
	TransactionCount int             `json:"transactions"`
}

// Dashboard is the at-a-glance summary served to the landing page.
type Dashboard struct {
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	InitialBalance     decimal.Decimal `json:"initial_balance"`
	Today              DashboardPeriod `json:"today"`
	AllTime            DashboardPeriod `json:"all_time"`
	RecentTransactions []Transaction   `json:"recent_transactions"`
}
