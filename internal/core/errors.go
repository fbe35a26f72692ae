package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound reports a lookup by id with no matching row.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input. Field names the
// offending field in its wire spelling (e.g. "address_name").
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientBalanceError rejects a payment that would drive the ledger
// negative. Balance carries the current balance at the time of the check so
// callers can display it.
type InsufficientBalanceError struct {
	Balance decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current balance is %s", e.Balance.StringFixed(2))
}
