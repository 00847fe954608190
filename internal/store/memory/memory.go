// Package memory is an in-process ledger store for tests and demos.
package memory

import (
	"context"
	"slices"
	"sync"

	"ledger/internal/core"
	"ledger/internal/store"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	items    []core.Transaction
	mirrored map[int64]struct{}
}

func New() *Store {
	return &Store{nextID: 1, mirrored: map[int64]struct{}{}}
}

// InsertTransactions validates every row before storing any of them.
func (s *Store) InsertTransactions(_ context.Context, rows []core.Transaction) ([]core.Transaction, error) {
	for _, t := range rows {
		if err := t.Validate(); err != nil {
			return nil, &core.StoreError{Op: "insert transactions", Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(rows))
	for i, t := range rows {
		t.ID = s.nextID
		s.nextID++
		out[i] = t
	}
	s.items = append(s.items, out...)
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := slices.Clone(s.items)
	s.mu.Unlock()
	store.SortNewestFirst(out)
	return out, nil
}

func (s *Store) ListTransactionsBetween(_ context.Context, start, end core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	var out []core.Transaction
	for _, t := range s.items {
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}
		out = append(out, t)
	}
	s.mu.Unlock()
	store.SortNewestFirst(out)
	return out, nil
}

func (s *Store) GetTransactions(_ context.Context, ids []int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(ids))
	for _, t := range s.items {
		if slices.Contains(ids, t.ID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// PendingMirror returns up to limit rows not yet marked as mirrored, oldest
// first.
func (s *Store) PendingMirror(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if len(out) == limit {
			break
		}
		if _, ok := s.mirrored[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) MarkMirrored(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.mirrored[id] = struct{}{}
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
