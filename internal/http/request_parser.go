package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON parses a request body into dst, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()}
	}
	if dec.More() {
		return &core.ValidationError{Field: "body", Reason: "unexpected trailing data"}
	}
	return nil
}

type transactionRequest struct {
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	AddressID       string          `json:"address_id"`
	AddressName     string          `json:"address_name"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
}

func (req transactionRequest) toInput() core.TransactionInput {
	return core.TransactionInput{
		Type:            core.TransactionType(strings.TrimSpace(req.Type)),
		Amount:          req.Amount,
		AddressID:       strings.TrimSpace(req.AddressID),
		AddressName:     sanitizeInput(req.AddressName),
		Description:     sanitizeInput(req.Description),
		ReferenceNumber: sanitizeInput(req.ReferenceNumber),
	}
}

type initialBalanceRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type addressRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

func (req addressRequest) toInput() core.AddressInput {
	return core.AddressInput{
		Name:  sanitizeInput(req.Name),
		Type:  sanitizeInput(req.Type),
		Phone: sanitizeInput(req.Phone),
		Email: sanitizeInput(req.Email),
		Notes: sanitizeInput(req.Notes),
	}
}

// parseListQuery reads pagination and filter parameters for transaction
// listings: page, limit, type, date, start_date, end_date, address_id.
func parseListQuery(r *http.Request) (ledger.TransactionFilter, int, int, error) {
	q := r.URL.Query()

	page, err := positiveIntParam(q.Get("page"), 1)
	if err != nil {
		return ledger.TransactionFilter{}, 0, 0, &core.ValidationError{Field: "page", Reason: "must be a positive integer"}
	}
	limit, err := positiveIntParam(q.Get("limit"), 50)
	if err != nil {
		return ledger.TransactionFilter{}, 0, 0, &core.ValidationError{Field: "limit", Reason: "must be a positive integer"}
	}

	var f ledger.TransactionFilter

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := core.TransactionType(v)
		if !t.IsValid() {
			return ledger.TransactionFilter{}, 0, 0, &core.ValidationError{Field: "type", Reason: "must be receipt or payment"}
		}
		f.Type = t
	}

	if f.Date, err = dateParam(q.Get("date"), "date"); err != nil {
		return ledger.TransactionFilter{}, 0, 0, err
	}
	if f.StartDate, err = dateParam(q.Get("start_date"), "start_date"); err != nil {
		return ledger.TransactionFilter{}, 0, 0, err
	}
	if f.EndDate, err = dateParam(q.Get("end_date"), "end_date"); err != nil {
		return ledger.TransactionFilter{}, 0, 0, err
	}

	f.AddressID = strings.TrimSpace(q.Get("address_id"))

	return f, page, limit, nil
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func dateParam(raw, field string) (core.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

func positiveIntParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}

// sanitizeInput trims whitespace and strips control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID returns the {id} path segment or a validation error when blank.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", &core.ValidationError{Field: "id", Reason: "is required"}
	}
	return id, nil
}
