package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
	"cashbook/internal/ledger/memory"
)

func newLedgerService(t *testing.T, initialBalance string) (*LedgerService, *memory.Store) {
	t.Helper()

	store := memory.New()
	if initialBalance != "" {
		if _, err := store.UpdateInitialBalance(context.Background(), decimal.RequireFromString(initialBalance)); err != nil {
			t.Fatalf("set initial balance: %v", err)
		}
	}
	return NewLedgerService(store, nil), store
}

func mustCreate(t *testing.T, svc *LedgerService, typ core.TransactionType, amount string) (core.Transaction, decimal.Decimal) {
	t.Helper()

	tx, balance, err := svc.CreateTransaction(context.Background(), core.TransactionInput{
		Type:        typ,
		Amount:      decimal.RequireFromString(amount),
		AddressName: "Al Noor Trading",
	})
	if err != nil {
		t.Fatalf("CreateTransaction(%s, %s) error = %v", typ, amount, err)
	}
	return tx, balance
}

func TestCurrentBalanceInvariant(t *testing.T) {
	svc, store := newLedgerService(t, "500")
	ctx := context.Background()

	mustCreate(t, svc, core.Receipt, "120.50")
	mustCreate(t, svc, core.Payment, "40.25")
	mustCreate(t, svc, core.Receipt, "9.99")
	mustCreate(t, svc, core.Payment, "100")

	// Recompute independently from the stored rows.
	rows, err := store.ListTransactions(ctx, ledger.TransactionFilter{}, ledger.ListOptions{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	expected := decimal.RequireFromString("500")
	for _, tx := range rows {
		if tx.Type == core.Receipt {
			expected = expected.Add(tx.Amount)
		} else {
			expected = expected.Sub(tx.Amount)
		}
	}

	balance, err := svc.CurrentBalance(ctx)
	if err != nil {
		t.Fatalf("CurrentBalance() error = %v", err)
	}
	if !balance.Equal(expected) {
		t.Errorf("CurrentBalance() = %s, want %s", balance, expected)
	}
}

func TestCreateTransactionRejectsOverdraft(t *testing.T) {
	svc, store := newLedgerService(t, "100")
	ctx := context.Background()

	_, _, err := svc.CreateTransaction(ctx, core.TransactionInput{
		Type:        core.Payment,
		Amount:      decimal.RequireFromString("150"),
		AddressName: "Gulf Supplies",
	})

	var insufficient *core.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("CreateTransaction() error = %v, want *InsufficientBalanceError", err)
	}
	if !insufficient.Balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("error balance = %s, want 100", insufficient.Balance)
	}

	// The rejected payment must leave nothing behind.
	count, err := store.CountTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("CountTransactions() error = %v", err)
	}
	if count != 0 {
		t.Errorf("transaction count after rejection = %d, want 0", count)
	}

	balance, err := svc.CurrentBalance(ctx)
	if err != nil {
		t.Fatalf("CurrentBalance() error = %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("balance after rejection = %s, want 100", balance)
	}
}

func TestCreateTransactionAllowsExactBalance(t *testing.T) {
	svc, _ := newLedgerService(t, "100")

	_, balance := mustCreate(t, svc, core.Payment, "100")
	if !balance.Equal(decimal.Zero) {
		t.Errorf("balance after paying out everything = %s, want 0", balance)
	}
}

func TestCreateTransactionGeneratesReference(t *testing.T) {
	svc, _ := newLedgerService(t, "")

	tx, _ := mustCreate(t, svc, core.Receipt, "10")

	pattern := regexp.MustCompile(`^REC-\d+$`)
	if !pattern.MatchString(tx.ReferenceNumber) {
		t.Errorf("reference number = %q, want REC-<epoch millis>", tx.ReferenceNumber)
	}

	pay, _, err := svc.CreateTransaction(context.Background(), core.TransactionInput{
		Type:        core.Payment,
		Amount:      decimal.RequireFromString("5"),
		AddressName: "Gulf Supplies",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if !regexp.MustCompile(`^PAY-\d+$`).MatchString(pay.ReferenceNumber) {
		t.Errorf("payment reference = %q, want PAY-<epoch millis>", pay.ReferenceNumber)
	}
}

func TestCreateTransactionKeepsCallerReference(t *testing.T) {
	svc, _ := newLedgerService(t, "")

	tx, _, err := svc.CreateTransaction(context.Background(), core.TransactionInput{
		Type:            core.Receipt,
		Amount:          decimal.RequireFromString("10"),
		AddressName:     "Al Noor Trading",
		ReferenceNumber: "INV-2024-0042",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if tx.ReferenceNumber != "INV-2024-0042" {
		t.Errorf("reference number = %q, want INV-2024-0042", tx.ReferenceNumber)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _ := newLedgerService(t, "")
	ctx := context.Background()

	tests := []struct {
		name      string
		input     core.TransactionInput
		wantField string
	}{
		{
			name: "bad type",
			input: core.TransactionInput{
				Type:        "transfer",
				Amount:      decimal.NewFromInt(10),
				AddressName: "X",
			},
			wantField: "type",
		},
		{
			name: "non-positive amount",
			input: core.TransactionInput{
				Type:        core.Receipt,
				Amount:      decimal.Zero,
				AddressName: "X",
			},
			wantField: "amount",
		},
		{
			name: "missing address name",
			input: core.TransactionInput{
				Type:   core.Receipt,
				Amount: decimal.NewFromInt(10),
			},
			wantField: "address_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateTransaction(ctx, tt.input)

			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("CreateTransaction() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("validation field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	svc, _ := newLedgerService(t, "")

	_, err := svc.GetTransaction(context.Background(), "no-such-id")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	svc, _ := newLedgerService(t, "")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreate(t, svc, core.Receipt, "10")
		time.Sleep(time.Millisecond)
	}

	page, err := svc.ListTransactions(ctx, ledger.TransactionFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(page.Transactions) != 2 {
		t.Errorf("page size = %d, want 2", len(page.Transactions))
	}
	if page.Pagination.Total != 5 {
		t.Errorf("total = %d, want 5", page.Pagination.Total)
	}
	if page.Pagination.Pages != 3 {
		t.Errorf("pages = %d, want 3", page.Pagination.Pages)
	}

	// Newest first.
	if len(page.Transactions) == 2 && page.Transactions[0].CreatedAt.Before(page.Transactions[1].CreatedAt) {
		t.Error("transactions should be ordered newest first")
	}
}

func TestSetInitialBalance(t *testing.T) {
	svc, _ := newLedgerService(t, "")
	ctx := context.Background()

	_, err := svc.SetInitialBalance(ctx, decimal.RequireFromString("-1"))
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "initial_balance" {
		t.Fatalf("SetInitialBalance(-1) error = %v, want validation error on initial_balance", err)
	}

	out, err := svc.SetInitialBalance(ctx, decimal.RequireFromString("250.75"))
	if err != nil {
		t.Fatalf("SetInitialBalance() error = %v", err)
	}
	if !out.InitialBalance.Equal(decimal.RequireFromString("250.75")) {
		t.Errorf("initial balance = %s, want 250.75", out.InitialBalance)
	}
	if !out.CurrentBalance.Equal(decimal.RequireFromString("250.75")) {
		t.Errorf("current balance = %s, want 250.75", out.CurrentBalance)
	}
}

func TestBalanceAsOfBeforeFirstTransaction(t *testing.T) {
	svc, _ := newLedgerService(t, "42")

	mustCreate(t, svc, core.Receipt, "10")

	balance, err := svc.BalanceAsOf(context.Background(), core.NewDate(2000, time.January, 1))
	if err != nil {
		t.Fatalf("BalanceAsOf() error = %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("42")) {
		t.Errorf("BalanceAsOf(before first tx) = %s, want initial balance 42", balance)
	}
}

type recordingPublisher struct {
	ids  []string
	fail bool
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, id, _ string) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.ids = append(p.ids, id)
	return nil
}

func TestCreateTransactionPublishesEvent(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, pub)

	tx, _, err := svc.CreateTransaction(context.Background(), core.TransactionInput{
		Type:        core.Receipt,
		Amount:      decimal.RequireFromString("10"),
		AddressName: "Al Noor Trading",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if len(pub.ids) != 1 || pub.ids[0] != tx.ID {
		t.Errorf("published ids = %v, want [%s]", pub.ids, tx.ID)
	}
}

func TestCreateTransactionSurvivesPublishFailure(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store, &recordingPublisher{fail: true})

	_, balance, err := svc.CreateTransaction(context.Background(), core.TransactionInput{
		Type:        core.Receipt,
		Amount:      decimal.RequireFromString("10"),
		AddressName: "Al Noor Trading",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() should not fail on publish errors, got %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("10")) {
		t.Errorf("balance = %s, want 10", balance)
	}
}

func TestAddressLifecycle(t *testing.T) {
	svc, _ := newLedgerService(t, "")
	ctx := context.Background()

	created, err := svc.CreateAddress(ctx, core.AddressInput{Name: "Gulf Supplies", Type: "supplier"})
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}
	if created.ID == "" || !created.Active {
		t.Errorf("created address = %+v, want non-empty id and active", created)
	}

	updated, err := svc.UpdateAddress(ctx, created.ID, core.AddressInput{Name: "Gulf Supplies LLC", Type: "supplier", Phone: "+971-4-5550100"})
	if err != nil {
		t.Fatalf("UpdateAddress() error = %v", err)
	}
	if updated.Name != "Gulf Supplies LLC" || updated.Phone != "+971-4-5550100" {
		t.Errorf("updated address = %+v", updated)
	}

	if err := svc.DeleteAddress(ctx, created.ID); err != nil {
		t.Fatalf("DeleteAddress() error = %v", err)
	}
	listed, err := svc.ListAddresses(ctx)
	if err != nil {
		t.Fatalf("ListAddresses() error = %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("active addresses after delete = %d, want 0", len(listed))
	}

	if _, err := svc.UpdateAddress(ctx, "no-such-id", core.AddressInput{Name: "X", Type: "y"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateAddress(missing) error = %v, want ErrNotFound", err)
	}
}
