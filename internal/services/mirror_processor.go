package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/store"
)

// MirrorStore is the store surface the mirror needs.
type MirrorStore interface {
	store.MirrorTracker
	GetTransactions(ctx context.Context, ids []int64) ([]core.Transaction, error)
}

type MirrorProcessorConfig struct {
	// PollInterval is how often pending rows are swept without an event
	// (default: 1m).
	PollInterval time.Duration

	// BatchSize is the max number of rows appended per sheet call
	// (default: 100).
	BatchSize int
}

func DefaultMirrorProcessorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    100,
	}
}

// MirrorProcessor copies rows not yet mirrored to the spreadsheet. It runs
// on "transactions recorded" events and on a periodic sweep that catches
// rows whose event was lost.
type MirrorProcessor struct {
	store  MirrorStore
	mirror sheets.Mirror
	config MirrorProcessorConfig

	// syncMu serializes sweeps so a row is never appended twice.
	syncMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorProcessor(s MirrorStore, m sheets.Mirror, config MirrorProcessorConfig) *MirrorProcessor {
	defaults := DefaultMirrorProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &MirrorProcessor{store: s, mirror: m, config: config}
}

// HandleMessage is an amqp.Handler. The event only signals that rows are
// waiting; the pending set in the store is authoritative.
func (p *MirrorProcessor) HandleMessage(ctx context.Context, msg *amqp.TransactionsRecordedMessage) error {
	slog.DebugContext(ctx, "Mirror triggered by event",
		log.FieldOperation, log.OpMirror,
		"message_id", msg.ID,
		"count", len(msg.TransactionIDs))
	if missing := p.missingIDs(ctx, msg.TransactionIDs); len(missing) > 0 {
		// The server and the worker are not sharing one database file.
		slog.WarnContext(ctx, "Event references transactions unknown to the store",
			log.FieldOperation, log.OpMirror,
			"message_id", msg.ID,
			log.FieldTransactionID, missing)
	}
	_, err := p.SyncPending(ctx)
	return err
}

// missingIDs returns the ids the store has no row for.
func (p *MirrorProcessor) missingIDs(ctx context.Context, ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	known, err := p.store.GetTransactions(ctx, ids)
	if err != nil {
		slog.WarnContext(ctx, "Failed to look up event transactions", log.FieldError, err)
		return nil
	}
	seen := make(map[int64]struct{}, len(known))
	for _, t := range known {
		seen[t.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// SyncPending appends pending rows in batches until none are left and
// returns how many were mirrored.
func (p *MirrorProcessor) SyncPending(ctx context.Context) (int, error) {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rows, err := p.store.PendingMirror(ctx, p.config.BatchSize)
		if err != nil {
			return total, fmt.Errorf("load pending rows: %w", err)
		}
		if len(rows) == 0 {
			return total, nil
		}

		if err := p.mirror.AppendTransactions(ctx, rows); err != nil {
			return total, fmt.Errorf("append to mirror: %w", err)
		}
		if err := p.store.MarkMirrored(ctx, ids(rows)); err != nil {
			return total, fmt.Errorf("mark mirrored: %w", err)
		}
		total += len(rows)

		slog.InfoContext(ctx, "Mirrored rows to Google Sheets",
			log.FieldOperation, log.OpMirror,
			"count", len(rows),
			"total", total)
		if len(rows) < p.config.BatchSize {
			return total, nil
		}
	}
}

// Start begins the periodic sweep. Returns an error if already running.
func (p *MirrorProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	p.stopCh, p.doneCh = stopCh, doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Mirror processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the sweep loop and waits for it to finish.
func (p *MirrorProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Mirror processor stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}
}

func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop serves a single Start and only touches that run's channels.
func (p *MirrorProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *MirrorProcessor) sweep(ctx context.Context) {
	if _, err := p.SyncPending(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Mirror sweep failed",
			log.FieldOperation, log.OpMirror,
			log.FieldError, err)
	}
}

func ids(rows []core.Transaction) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
