// Package storage is the SQLite ledger store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/store"

	_ "modernc.org/sqlite"
)

const selectColumns = `SELECT id, date, kind, category, subcategory, payment_method, amount, note, installment_count FROM transactions`

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &core.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// InsertTransactions validates every row, then stores them in a single
// database transaction.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, rows []core.Transaction) ([]core.Transaction, error) {
	for _, t := range rows {
		if err := t.Validate(); err != nil {
			return nil, &core.StoreError{Op: "insert transactions", Err: err}
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &core.StoreError{Op: "begin insert", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(date, kind, category, subcategory, payment_method, amount, note, installment_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, &core.StoreError{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	out := make([]core.Transaction, len(rows))
	for i, t := range rows {
		res, err := stmt.ExecContext(ctx,
			t.Date.String(),
			string(t.Kind),
			string(t.Category),
			string(t.Subcategory),
			string(t.PaymentMethod),
			t.Amount.String(),
			t.Note,
			t.InstallmentCount,
		)
		if err != nil {
			return nil, &core.StoreError{Op: "insert transaction", Err: err}
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, &core.StoreError{Op: "insert transaction", Err: err}
		}
		t.ID = id
		out[i] = t
	}

	if err := tx.Commit(); err != nil {
		return nil, &core.StoreError{Op: "commit insert", Err: err}
	}

	slog.DebugContext(ctx, "Transactions saved to SQLite", "count", len(out))
	return out, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.query(ctx, "list transactions", selectColumns+` ORDER BY date DESC, id DESC`)
}

func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	return r.query(ctx, "list transactions between",
		selectColumns+` WHERE date BETWEEN ? AND ? ORDER BY date DESC, id DESC`,
		start.String(), end.String())
}

func (r *SQLiteRepository) GetTransactions(ctx context.Context, ids []int64) ([]core.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	return r.query(ctx, "get transactions",
		selectColumns+` WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
}

// PendingMirror returns up to limit rows without a mirrored_at stamp, oldest
// first.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	return r.query(ctx, "pending mirror",
		selectColumns+` WHERE mirrored_at IS NULL ORDER BY id LIMIT ?`, limit)
}

func (r *SQLiteRepository) MarkMirrored(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, time.Now().UTC().Format(time.RFC3339))
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirrored_at = ? WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return &core.StoreError{Op: "mark mirrored", Err: err}
	}
	slog.InfoContext(ctx, "Transactions marked as mirrored", "count", len(ids))
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, op, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t                                core.Transaction
		date, kind, cat, sub, pm, amount string
	)
	if err := rows.Scan(&t.ID, &date, &kind, &cat, &sub, &pm, &amount, &t.Note, &t.InstallmentCount); err != nil {
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return t, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return t, fmt.Errorf("transaction %d amount %q: %w", t.ID, amount, err)
	}
	t.Date = d
	t.Kind = core.Kind(kind)
	t.Category = core.Category(cat)
	t.Subcategory = core.Subcategory(sub)
	t.PaymentMethod = core.PaymentMethod(pm)
	t.Amount = a
	return t, nil
}

var _ store.Store = (*SQLiteRepository)(nil)
