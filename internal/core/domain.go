package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Receipt TransactionType = "receipt"
	Payment TransactionType = "payment"
)

// DefaultOperator is the attribution recorded on every transaction.
// The ledger is operated by a single identity; there are no user accounts.
const DefaultOperator = "operator"

type TransactionType string

func (t TransactionType) IsValid() bool {
	return t == Receipt || t == Payment
}

// ReferencePrefix returns the uppercase three-letter prefix used for
// generated reference numbers ("REC" for receipts, "PAY" for payments).
func (t TransactionType) ReferencePrefix() string {
	s := strings.ToUpper(string(t))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

func (t TransactionType) String() string {
	return string(t)
}

// Transaction is a single ledger entry. Transactions are append-only:
// once written they are never updated or deleted.
type Transaction struct {
	ID              string          `json:"id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	AddressID       string          `json:"address_id,omitempty"`
	AddressName     string          `json:"address_name"`
	Description     string          `json:"description,omitempty"`
	ReferenceNumber string          `json:"reference_number"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `json:"created_by"`
}

// TransactionInput carries the caller-supplied fields of a new transaction.
// ID, reference number (when absent), CreatedAt and CreatedBy are filled in
// by the writer.
type TransactionInput struct {
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	AddressID       string          `json:"address_id"`
	AddressName     string          `json:"address_name"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
}

func (in TransactionInput) Validate() error {
	if !in.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: "must be 'receipt' or 'payment'"}
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.AddressName) == "" {
		return &ValidationError{Field: "address_name", Reason: "is required"}
	}
	return nil
}

// Settings is the singleton configuration record of the ledger. It is
// created once at store initialization with a zero initial balance and
// mutated only through the explicit balance-update operation.
type Settings struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Address is a named party transactions are recorded against. Addresses are
// soft-deleted: deactivation hides them from listings but keeps the row so
// historical transactions keep their reference.
type Address struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"is_active"`
}

// AddressInput carries the caller-supplied fields of an address.
type AddressInput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

func (in AddressInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(in.Type) == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	return nil
}
