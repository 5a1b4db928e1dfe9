package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/export/sheets"
	"contas/internal/storage"
)

// Store is the storage surface the worker needs: fetching the row to
// mirror and moving it through the sync states.
type Store interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id uuid.UUID) error
	MarkSyncError(ctx context.Context, id uuid.UUID) error
}

// SyncWorker mirrors transactions to the spreadsheet. It is driven two
// ways: AMQP messages for low latency, and a periodic sweep of the
// pending queue that catches anything the messages missed.
type SyncWorker struct {
	store     Store
	writer    sheets.TransactionWriter
	deleter   sheets.TransactionDeleter
	batchSize int
}

func NewSyncWorker(store Store, writer sheets.TransactionWriter, deleter sheets.TransactionDeleter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage mirrors one transaction in response to a queue
// message. A transaction deleted between publish and delivery is removed
// from the mirror instead.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	txn, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction gone before sync, removing from mirror",
			"transaction_id", msg.ID)
		return w.deleteFromMirror(ctx, msg.ID)
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", msg.ID, err)
	}

	return w.mirror(ctx, txn)
}

// HandleDeleteMessage removes one transaction from the mirror.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	return w.deleteFromMirror(ctx, msg.ID)
}

// ProcessPending sweeps the pending sync queue once and mirrors each row.
// It returns the number of rows mirrored successfully.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing pending sync batch", "count", len(pending))

	synced := 0
	for _, p := range pending {
		select {
		case <-ctx.Done():
			return synced, ctx.Err()
		default:
		}

		txn, err := w.store.GetTransaction(ctx, p.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Soft-deleted while queued. The delete message handles the
			// mirror row; drop it from the queue.
			if err := w.store.MarkSynced(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to clear deleted transaction from queue",
					"transaction_id", p.ID, "error", err)
			}
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction",
				"transaction_id", p.ID, "error", err)
			continue
		}

		if err := w.mirror(ctx, txn); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction",
				"transaction_id", p.ID, "version", p.Version, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// RunPendingLoop sweeps the pending queue at the given interval until the
// context is cancelled.
func (w *SyncWorker) RunPendingLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Sweep immediately on startup to drain anything left from a crash.
	if _, err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Initial pending sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping pending sweep loop", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			n, err := w.ProcessPending(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "Mirrored pending transactions", "count", n)
			}
		}
	}
}

func (w *SyncWorker) mirror(ctx context.Context, txn core.Transaction) error {
	ref, err := w.writer.Upsert(ctx, txn)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, txn.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"transaction_id", txn.ID, "error", markErr)
		}
		return fmt.Errorf("mirror transaction %s: %w", txn.ID, err)
	}

	if err := w.store.MarkSynced(ctx, txn.ID); err != nil {
		// The mirror write itself succeeded.
		slog.WarnContext(ctx, "Failed to mark transaction as synced",
			"transaction_id", txn.ID, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", txn.ID, "row_ref", ref)
	return nil
}

func (w *SyncWorker) deleteFromMirror(ctx context.Context, id uuid.UUID) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No mirror deleter configured, skipping delete",
			"transaction_id", id)
		return nil
	}
	if err := w.deleter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s from mirror: %w", id, err)
	}
	slog.InfoContext(ctx, "Removed transaction from mirror", "transaction_id", id)
	return nil
}
