// Package worker consumes published transaction events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
)

// EventWorker resolves published transaction events against the store and
// emits one structured record per ledger entry. Events for unknown
// transactions are dropped after logging; requeueing them would loop
// forever.
type EventWorker struct {
	store  ledger.TransactionStore
	logger *applog.Logger

	processed int64
	dropped   int64
}

func NewEventWorker(store ledger.TransactionStore, logger *applog.Logger) *EventWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	}
	return &EventWorker{
		store:  store,
		logger: logger,
	}
}

// Handler adapts the worker to the AMQP consume callback.
func (w *EventWorker) Handler(ctx context.Context) func(*amqp.TransactionEvent) error {
	return func(event *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, event)
	}
}

// HandleEvent processes one event. Store errors other than not-found are
// returned so the delivery gets requeued.
func (w *EventWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := w.store.GetTransaction(ctx, event.ID)
	if errors.Is(err, core.ErrNotFound) {
		atomic.AddInt64(&w.dropped, 1)
		w.logger.WarnContext(ctx, "Dropping event for unknown transaction",
			applog.FieldTransactionID, event.ID,
			applog.FieldTransactionType, event.Type)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve transaction %s: %w", event.ID, err)
	}

	atomic.AddInt64(&w.processed, 1)
	w.logger.InfoContext(ctx, "Transaction event processed",
		applog.FieldTransactionID, tx.ID,
		applog.FieldTransactionType, string(tx.Type),
		applog.FieldAmount, tx.Amount.StringFixed(2),
		applog.FieldReference, tx.ReferenceNumber,
		"address_name", tx.AddressName,
		"created_by", tx.CreatedBy,
		"created_at", tx.CreatedAt.Format(time.RFC3339),
		"published_at", event.Timestamp.Format(time.RFC3339))

	return nil
}

// Stats reports how many events the worker has processed and dropped.
func (w *EventWorker) Stats() (processed, dropped int64) {
	return atomic.LoadInt64(&w.processed), atomic.LoadInt64(&w.dropped)
}
