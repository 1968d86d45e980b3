package worker

import (
	"context"
	"fmt"
	"log/slog"

	"energi/internal/amqp"
	"energi/internal/core"
	"energi/internal/dataset"
)

// DaySource is the local side of the replication pipeline: the durable
// store the mutator writes to.
type DaySource interface {
	Load(ctx context.Context, name string) ([]core.Event, error)
	LoadDay(ctx context.Context, date core.Date) ([]core.Event, error)
}

// SheetMirror is the remote side: a store that can swap a single day or
// rewrite the whole table.
type SheetMirror interface {
	Save(ctx context.Context, name string, events []core.Event) error
	ReplaceDay(ctx context.Context, name string, date core.Date, events []core.Event) error
}

// SyncWorker replicates rebuilt days from the local store to the remote
// sheet. Messages carry only a date, so replaying one is idempotent: the
// worker always pushes whatever the local store currently holds for that
// day.
type SyncWorker struct {
	source DaySource
	mirror SheetMirror
}

func NewSyncWorker(source DaySource, mirror SheetMirror) *SyncWorker {
	return &SyncWorker{
		source: source,
		mirror: mirror,
	}
}

// HandleSyncMessage processes a single day sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.DaySyncMessage) error {
	slog.InfoContext(ctx, "Processing day sync message", "date", msg.Date)

	events, err := w.source.LoadDay(ctx, msg.Date)
	if err != nil {
		return fmt.Errorf("load day from storage: %w", err)
	}

	if err := w.mirror.ReplaceDay(ctx, dataset.EnergyBalance, msg.Date, events); err != nil {
		return fmt.Errorf("replace day on sheet: %w", err)
	}

	slog.InfoContext(ctx, "Replicated day to sheet",
		"date", msg.Date,
		"rows", len(events))

	return nil
}

// ReconcileAll rewrites the remote sheet from the full local table. This is
// the backup mechanism for missed AMQP messages and worker downtime: it
// runs at startup and on a timer.
func (w *SyncWorker) ReconcileAll(ctx context.Context) error {
	events, err := w.source.Load(ctx, dataset.EnergyBalance)
	if err != nil {
		return fmt.Errorf("load full table from storage: %w", err)
	}

	if err := w.mirror.Save(ctx, dataset.EnergyBalance, events); err != nil {
		return fmt.Errorf("rewrite sheet: %w", err)
	}

	slog.InfoContext(ctx, "Reconciled sheet with local store", "rows", len(events))
	return nil
}
