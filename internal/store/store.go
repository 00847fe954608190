// Package store declares the ports through which the ledger is persisted.
package store

import (
	"cmp"
	"context"
	"slices"

	"ledger/internal/core"
)

type (
	// Writer persists ledger rows. InsertTransactions is all-or-nothing: it
	// either stores every row and returns them with their assigned IDs, or
	// stores none and returns a *core.StoreError.
	Writer interface {
		InsertTransactions(ctx context.Context, rows []core.Transaction) ([]core.Transaction, error)
	}

	// Reader lists stored rows, most recent date first and by ID within a day.
	Reader interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// ListTransactionsBetween returns rows dated in [start, end].
		ListTransactionsBetween(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
		// GetTransactions returns the rows with the given IDs. Unknown IDs
		// are skipped.
		GetTransactions(ctx context.Context, ids []int64) ([]core.Transaction, error)
	}

	// MirrorTracker records which rows have been copied to the spreadsheet
	// mirror.
	MirrorTracker interface {
		PendingMirror(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkMirrored(ctx context.Context, ids []int64) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is the full persistence surface used by the service layer.
	Store interface {
		Writer
		Reader
		MirrorTracker
		Pinger
		Close() error
	}
)

// SortNewestFirst orders rows by date descending, then by ID descending.
func SortNewestFirst(rows []core.Transaction) {
	slices.SortStableFunc(rows, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
