package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"

	"golang.org/x/sync/errgroup"
)

// SyncWorker mirrors ledger entries from SQLite to the spreadsheet backup.
// It consumes AMQP sync messages and periodically sweeps the pending backlog
// in case messages were lost.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.EntryWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.EntryWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "kind", msg.Kind, "id", msg.ID)
	return w.syncEntry(ctx, msg.Kind, msg.ID)
}

// ProcessPending sweeps entries that never made it through AMQP.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, entry := range pending {
		if err := w.syncEntry(ctx, entry.Kind, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry",
				"kind", entry.Kind, "id", entry.ID, "error", err)
		}
	}

	return nil
}

// Run consumes AMQP messages and sweeps the backlog on an interval until ctx
// is cancelled. A nil AMQP client degrades to sweep-only mode.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if client != nil {
		g.Go(func() error {
			return client.ConsumeEntrySync(ctx, func(msg *amqp.EntrySyncMessage) error {
				return w.HandleSyncMessage(ctx, msg)
			})
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Backlog sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

func (w *SyncWorker) syncEntry(ctx context.Context, kind string, id int64) error {
	row, err := w.loadRow(ctx, kind, id)
	if errors.Is(err, storage.ErrNotFound) {
		// The user was deleted after the message was queued. Nothing to back
		// up; don't requeue.
		slog.WarnContext(ctx, "Entry vanished before sync", "kind", kind, "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	if err := w.writer.Append(ctx, row); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, kind, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", markErr)
		}
		return fmt.Errorf("append to backup: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, kind, id); err != nil {
		// The append worked; log and move on.
		slog.ErrorContext(ctx, "Failed to mark as synced", "kind", kind, "id", id, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Entry synced to backup",
		applog.FieldEntryKind, kind, applog.FieldEntryID, id, applog.FieldComponent, applog.ComponentWorker)
	return nil
}

func (w *SyncWorker) loadRow(ctx context.Context, kind string, id int64) (sheets.LedgerRow, error) {
	switch kind {
	case amqp.KindExpense:
		e, err := w.storage.GetExpense(ctx, id)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Kind:     kind,
			ID:       e.ID,
			UserID:   e.UserID,
			Date:     e.Date.String(),
			Category: e.Category,
			Amount:   e.Amount.String(),
			Note:     e.Note,
		}, nil
	case amqp.KindSaving:
		s, err := w.storage.GetSaving(ctx, id)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Kind:   kind,
			ID:     s.ID,
			UserID: s.UserID,
			Date:   s.Date.String(),
			Amount: s.Amount.String(),
			Note:   s.Note,
		}, nil
	default:
		return sheets.LedgerRow{}, fmt.Errorf("unknown entry kind %q", kind)
	}
}
