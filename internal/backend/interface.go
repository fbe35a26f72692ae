// Package backend selects and wires the ledger store implementation at
// startup.
package backend

import (
	"context"

	"cashbook/internal/ledger"
)

// Backend is the store interface the rest of the application runs against.
type Backend = ledger.Store

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the optional event publisher
// bound to it and a cleanup function.
type BackendResult struct {
	Backend Backend
	Events  EventPublisher
	Cleanup CleanupFunc
}

// EventPublisher mirrors services.EventPublisher so the factory can hand the
// wired publisher to the caller without importing the services package.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, id string, txType string) error
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP event publishing (optional, sqlite backend only)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
