package api

import (
	"context"

	"github.com/lysyi3m/workwatch/app/database"
	"github.com/lysyi3m/workwatch/app/tasks"
)

// StatusStore is the part of the state store the ops endpoints read.
type StatusStore interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (database.Stats, error)
	Length(ctx context.Context) (int64, error)
}

var _ StatusStore = (database.Store)(nil)

type Handler struct {
	store     StatusStore
	scheduler tasks.TaskSchedulerInterface
	feeds     int
	version   string
}
