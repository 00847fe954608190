// Package services orchestrates validation, installment expansion,
// persistence and event publication for the ledger.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
	"ledger/internal/summary"
)

// Publisher announces committed rows. It is optional: a nil Publisher
// disables events.
type Publisher interface {
	PublishTransactionsRecorded(ctx context.Context, ids []int64) error
}

type LedgerService struct {
	store     store.Store
	publisher Publisher
}

func NewLedgerService(s store.Store, p Publisher) *LedgerService {
	return &LedgerService{store: s, publisher: p}
}

// ImportResult reports a bulk import. Errors holds one "row N: reason"
// entry per rejected row, N counting from 1.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

func (s *LedgerService) Catalog() core.Catalog { return core.DefaultCatalog() }

// Record validates d, expands it into its installments and stores every
// resulting row in one store transaction.
func (s *LedgerService) Record(ctx context.Context, d core.Draft) ([]core.Transaction, error) {
	t, err := d.Parse()
	if err != nil {
		return nil, err
	}
	rows, err := core.ExpandInstallments(t)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.InsertTransactions(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded", log.NewFields().
		WithOperation(log.OpRecord).
		WithTransaction(string(t.Kind), string(t.Category), string(t.Subcategory), t.Amount.String(), len(saved)).
		ToSlice()...)
	s.publish(ctx, saved)
	return saved, nil
}

// Import validates each draft on its own and stores the valid ones verbatim
// (no installment expansion) in a single store transaction. Invalid rows are
// skipped and reported. If the commit fails nothing is stored and the error
// is returned with Inserted = 0.
func (s *LedgerService) Import(ctx context.Context, drafts []core.Draft) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}
	valid := make([]core.Transaction, 0, len(drafts))
	for i, d := range drafts {
		t, err := d.Parse()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		valid = append(valid, t)
	}
	if len(valid) == 0 {
		return res, nil
	}

	saved, err := s.store.InsertTransactions(ctx, valid)
	if err != nil {
		return ImportResult{Errors: res.Errors}, fmt.Errorf("import transactions: %w", err)
	}
	res.Inserted = len(saved)

	slog.InfoContext(ctx, "Bulk import committed",
		log.FieldOperation, log.OpImport,
		"inserted", res.Inserted,
		"rejected", len(res.Errors))
	s.publish(ctx, saved)
	return res, nil
}

// List returns every row, most recent first.
func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}

// ListRange returns rows dated in [start, end].
func (s *LedgerService) ListRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	if end.Before(start.Time) {
		return nil, &core.ValidationError{Field: "end", Reason: "end date must not be before start date"}
	}
	rows, err := s.store.ListTransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", err)
	}
	return rows, nil
}

func (s *LedgerService) MonthlySummary(ctx context.Context) ([]summary.Row, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return summary.Monthly(rows), nil
}

func (s *LedgerService) Breakdown(ctx context.Context, month core.YearMonth, keep summary.Filter) ([]summary.CategoryBreakdown, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Computing breakdown", log.FieldOperation, log.OpSummary, log.FieldMonth, month.String())
	return summary.Breakdown(rows, month, keep), nil
}

func (s *LedgerService) Dashboard(ctx context.Context) (summary.Dashboard, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return summary.Dashboard{}, err
	}
	return summary.BuildDashboard(rows), nil
}

// Ready reports whether the store answers.
func (s *LedgerService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish never fails the caller: the rows are already committed and the
// mirror worker catches up from the pending set.
func (s *LedgerService) publish(ctx context.Context, rows []core.Transaction) {
	if s.publisher == nil || len(rows) == 0 {
		return
	}
	if err := s.publisher.PublishTransactionsRecorded(ctx, ids(rows)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transactions recorded event",
			log.FieldErrorType, log.ErrorTypeNetwork,
			"count", len(rows),
			log.FieldError, err)
	}
}

// Close releases the store and, when it supports it, the publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
