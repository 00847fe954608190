// Package backend assembles the ledger store and service from configuration.
package backend

import (
	"context"

	"ledger/internal/services"
	"ledger/internal/store"
)

type CleanupFunc func() error

// BackendResult is a ready ledger service with the store it runs on.
// Cleanup closes the store and the publisher.
type BackendResult struct {
	Service *services.LedgerService
	Store   store.Store
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
