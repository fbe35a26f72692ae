package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionTypeIsValid(t *testing.T) {
	tests := []struct {
		typ   TransactionType
		valid bool
	}{
		{Receipt, true},
		{Payment, true},
		{TransactionType("transfer"), false},
		{TransactionType(""), false},
		{TransactionType("RECEIPT"), false},
	}

	for _, tt := range tests {
		if got := tt.typ.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.typ, got, tt.valid)
		}
	}
}

func TestTransactionTypeReferencePrefix(t *testing.T) {
	if got := Receipt.ReferencePrefix(); got != "REC" {
		t.Errorf("receipt prefix = %q, want REC", got)
	}
	if got := Payment.ReferencePrefix(); got != "PAY" {
		t.Errorf("payment prefix = %q, want PAY", got)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	valid := TransactionInput{
		Type:        Receipt,
		Amount:      decimal.NewFromInt(100),
		AddressName: "Al Noor Trading",
	}

	tests := []struct {
		name      string
		mutate    func(*TransactionInput)
		wantField string
	}{
		{
			name:   "valid input",
			mutate: func(in *TransactionInput) {},
		},
		{
			name:      "unknown type",
			mutate:    func(in *TransactionInput) { in.Type = "transfer" },
			wantField: "type",
		},
		{
			name:      "zero amount",
			mutate:    func(in *TransactionInput) { in.Amount = decimal.Zero },
			wantField: "amount",
		},
		{
			name:      "negative amount",
			mutate:    func(in *TransactionInput) { in.Amount = decimal.NewFromInt(-5) },
			wantField: "amount",
		},
		{
			name:      "too many decimal places",
			mutate:    func(in *TransactionInput) { in.Amount = decimal.RequireFromString("10.005") },
			wantField: "amount",
		},
		{
			name:      "missing address name",
			mutate:    func(in *TransactionInput) { in.AddressName = "  " },
			wantField: "address_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := in.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestAddressInputValidate(t *testing.T) {
	in := AddressInput{Name: "Gulf Supplies", Type: "supplier"}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	in.Name = ""
	var verr *ValidationError
	if err := in.Validate(); !errors.As(err, &verr) || verr.Field != "name" {
		t.Errorf("Validate() = %v, want validation error on name", err)
	}

	in.Name = "Gulf Supplies"
	in.Type = " "
	if err := in.Validate(); !errors.As(err, &verr) || verr.Field != "type" {
		t.Errorf("Validate() = %v, want validation error on type", err)
	}
}
