package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/workwatch/app/database"
)

type CleanupTask struct {
	Task
	store     database.Store
	retention time.Duration
	now       func() time.Time
}

func NewCleanupTask(store database.Store, retention time.Duration) *CleanupTask {
	return &CleanupTask{
		Task:      NewTask(TaskTypeCleanupStore),
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

func (t *CleanupTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.retention <= 0 {
		return nil
	}

	cutoff := t.now().Add(-t.retention)
	removed, err := t.store.Cleanup(context.WithoutCancel(ctx), cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up store: %w", err)
	}

	slog.Info("Task completed",
		"type", "CleanupStore",
		"duration", t.GetDuration(),
		"cutoff", cutoff.Format(time.DateOnly),
		"removed", removed)

	return nil
}
