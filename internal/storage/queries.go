package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// timeLayout is the fixed-width UTC format used for timestamp columns.
// Fixed fractional digits keep lexicographic order equal to chronological
// order, so ORDER BY created_at works on the raw text column.
const timeLayout = "2006-01-02T15:04:05.000Z"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the raw SQL layer. The repository wraps it with the guard
// logic and error context.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by SQLite defaults use strftime output without the
		// fixed fractional width.
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}

// transactionFilterSQL renders a ledger.TransactionFilter as a WHERE clause
// fragment with its positional arguments. Calendar-day comparisons go
// through SQLite's date() so the time of day never influences a boundary.
func transactionFilterSQL(f ledger.TransactionFilter) (string, []any) {
	where := "1=1"
	var args []any

	if f.Type != "" {
		where += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if !f.Date.IsZero() {
		where += " AND date(created_at) = ?"
		args = append(args, f.Date.String())
	}
	if !f.StartDate.IsZero() {
		where += " AND date(created_at) >= ?"
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		where += " AND date(created_at) <= ?"
		args = append(args, f.EndDate.String())
	}
	if f.AddressID != "" {
		where += " AND address_id = ?"
		args = append(args, f.AddressID)
	}

	return where, args
}

const transactionColumns = "id, type, amount_cents, address_id, address_name, description, reference_number, created_at, created_by"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx          core.Transaction
		amountCents int64
		addressID   sql.NullString
		description sql.NullString
		createdAt   string
	)
	if err := row.Scan(&tx.ID, &tx.Type, &amountCents, &addressID, &tx.AddressName, &description, &tx.ReferenceNumber, &createdAt, &tx.CreatedBy); err != nil {
		return core.Transaction{}, err
	}

	tx.Amount = core.AmountFromMinorUnits(amountCents)
	tx.AddressID = addressID.String
	tx.Description = description.String

	parsed, err := parseTime(createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	tx.CreatedAt = parsed

	return tx, nil
}

func (q *Queries) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		tx.ID,
		string(tx.Type),
		core.AmountToMinorUnits(tx.Amount),
		nullString(tx.AddressID),
		tx.AddressName,
		nullString(tx.Description),
		tx.ReferenceNumber,
		formatTime(tx.CreatedAt),
		tx.CreatedBy,
	)
	return err
}

func (q *Queries) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, err
}

func (q *Queries) ListTransactions(ctx context.Context, f ledger.TransactionFilter, opts ledger.ListOptions) ([]core.Transaction, error) {
	where, args := transactionFilterSQL(f)

	order := "DESC"
	if opts.Ascending {
		order = "ASC"
	}
	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + where +
		" ORDER BY created_at " + order
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (q *Queries) CountTransactions(ctx context.Context, f ledger.TransactionFilter) (int, error) {
	where, args := transactionFilterSQL(f)

	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&count)
	return count, err
}

func (q *Queries) SumByType(ctx context.Context, f ledger.TransactionFilter) (core.PeriodTotals, error) {
	where, args := transactionFilterSQL(f)

	var receiptCents, paymentCents int64
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'receipt' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'payment' THEN amount_cents ELSE 0 END), 0)
		FROM transactions WHERE `+where, args...).Scan(&receiptCents, &paymentCents)
	if err != nil {
		return core.PeriodTotals{}, err
	}

	return core.PeriodTotals{
		Receipts: core.AmountFromMinorUnits(receiptCents),
		Payments: core.AmountFromMinorUnits(paymentCents),
	}, nil
}

func (q *Queries) DailyTotals(ctx context.Context, start, end core.Date) ([]core.DaySummary, error) {
	where, args := transactionFilterSQL(ledger.TransactionFilter{StartDate: start, EndDate: end})

	rows, err := q.db.QueryContext(ctx, `
		SELECT
			date(created_at) AS day,
			COALESCE(SUM(CASE WHEN type = 'receipt' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'payment' THEN amount_cents ELSE 0 END), 0),
			COUNT(*)
		FROM transactions
		WHERE `+where+`
		GROUP BY date(created_at)
		ORDER BY date(created_at) ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.DaySummary{}
	for rows.Next() {
		var (
			day                        string
			receiptCents, paymentCents int64
			count                      int
		)
		if err := rows.Scan(&day, &receiptCents, &paymentCents, &count); err != nil {
			return nil, err
		}
		date, err := core.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		out = append(out, core.DaySummary{
			Date:             date,
			TotalReceipts:    core.AmountFromMinorUnits(receiptCents),
			TotalPayments:    core.AmountFromMinorUnits(paymentCents),
			TransactionCount: count,
		})
	}
	return out, rows.Err()
}

func (q *Queries) GetSettings(ctx context.Context) (core.Settings, error) {
	var (
		balanceCents int64
		updatedAt    string
	)
	err := q.db.QueryRowContext(ctx,
		"SELECT initial_balance_cents, updated_at FROM settings WHERE id = 1").
		Scan(&balanceCents, &updatedAt)
	if err != nil {
		return core.Settings{}, err
	}

	parsed, err := parseTime(updatedAt)
	if err != nil {
		return core.Settings{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return core.Settings{
		InitialBalance: core.AmountFromMinorUnits(balanceCents),
		UpdatedAt:      parsed,
	}, nil
}

func (q *Queries) UpdateInitialBalance(ctx context.Context, balanceCents int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE settings SET initial_balance_cents = ?, updated_at = ? WHERE id = 1",
		balanceCents, formatTime(updatedAt))
	return err
}

const addressColumns = "id, name, type, phone, email, notes, created_at, is_active"

func scanAddress(row interface{ Scan(...any) error }) (core.Address, error) {
	var (
		a                   core.Address
		phone, email, notes sql.NullString
		createdAt           string
		active              int
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &phone, &email, &notes, &createdAt, &active); err != nil {
		return core.Address{}, err
	}

	a.Phone = phone.String
	a.Email = email.String
	a.Notes = notes.String
	a.Active = active != 0

	parsed, err := parseTime(createdAt)
	if err != nil {
		return core.Address{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	a.CreatedAt = parsed

	return a, nil
}

func (q *Queries) ListAddresses(ctx context.Context) ([]core.Address, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE is_active = 1 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) GetAddress(ctx context.Context, id string) (core.Address, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id = ?", id)

	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Address{}, core.ErrNotFound
	}
	return a, err
}

func (q *Queries) InsertAddress(ctx context.Context, a core.Address) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO addresses ("+addressColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.Name, a.Type,
		nullString(a.Phone), nullString(a.Email), nullString(a.Notes),
		formatTime(a.CreatedAt), boolToInt(a.Active))
	return err
}

func (q *Queries) UpdateAddress(ctx context.Context, a core.Address) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE addresses SET name = ?, type = ?, phone = ?, email = ?, notes = ? WHERE id = ?",
		a.Name, a.Type,
		nullString(a.Phone), nullString(a.Email), nullString(a.Notes),
		a.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeactivateAddress(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE addresses SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
