package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/workwatch/app/database"
	"github.com/lysyi3m/workwatch/app/notify"
	"github.com/lysyi3m/workwatch/app/work"
)

// DeliverNotificationTask sends at most one queued work per execution.
type DeliverNotificationTask struct {
	Task
	store    database.Store
	notifier notify.Notifier
	renderer *work.Renderer
	now      func() time.Time
}

func NewDeliverNotificationTask(store database.Store, notifier notify.Notifier, renderer *work.Renderer) *DeliverNotificationTask {
	return &DeliverNotificationTask{
		Task:     NewTask(TaskTypeDeliverNotification),
		store:    store,
		notifier: notifier,
		renderer: renderer,
		now:      time.Now,
	}
}

func (t *DeliverNotificationTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// A dequeued item is always carried through to the send attempt.
	opCtx := context.WithoutCancel(ctx)

	id, ok, err := t.store.Dequeue(opCtx, 0)
	if err != nil {
		return fmt.Errorf("failed to dequeue work: %w", err)
	}
	if !ok {
		slog.Debug("Notification queue is empty")
		return nil
	}

	snapshot, err := t.store.GetSnapshot(opCtx, id)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	if snapshot == nil {
		slog.Warn("Snapshot missing for queued work, dropping", "work_id", id)
		return nil
	}

	text := t.renderer.Run(snapshot)

	if err := t.notifier.Send(opCtx, text); err != nil {
		slog.Error("Failed to send notification", "work_id", id, "error", err)
		return nil
	}

	if err := t.store.SaveSent(opCtx, work.NewSentRecord(id, t.now())); err != nil {
		return fmt.Errorf("failed to record sent work %s: %w", id, err)
	}

	slog.Info("Task completed",
		"type", "DeliverNotification",
		"work_id", id,
		"reason", snapshot.ChangeReason.String(),
		"duration", t.GetDuration())

	return nil
}
