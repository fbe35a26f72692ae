package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/ledger/memory"
)

func TestEventWorker_HandleEvent(t *testing.T) {
	store := memory.New()
	worker := NewEventWorker(store, nil)
	ctx := context.Background()

	tx := core.Transaction{
		ID:              uuid.NewString(),
		Type:            core.Receipt,
		Amount:          decimal.RequireFromString("42.50"),
		AddressName:     "Al Noor Trading",
		ReferenceNumber: "REC-1719848450123",
		CreatedAt:       time.Now().UTC(),
		CreatedBy:       core.DefaultOperator,
	}
	if err := store.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	event := amqp.NewTransactionEvent(tx.ID, string(tx.Type))
	if err := worker.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	processed, dropped := worker.Stats()
	if processed != 1 || dropped != 0 {
		t.Errorf("stats = %d processed, %d dropped; want 1, 0", processed, dropped)
	}
}

func TestEventWorker_DropsUnknownTransaction(t *testing.T) {
	worker := NewEventWorker(memory.New(), nil)

	event := amqp.NewTransactionEvent("no-such-id", "payment")
	if err := worker.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() for unknown id should not error, got %v", err)
	}

	processed, dropped := worker.Stats()
	if processed != 0 || dropped != 1 {
		t.Errorf("stats = %d processed, %d dropped; want 0, 1", processed, dropped)
	}
}
