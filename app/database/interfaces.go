package database

import (
	"context"
	"time"

	"github.com/lysyi3m/workwatch/app/work"
)

// SnapshotRepository persists the last accepted state of every work.
// GetSnapshot returns nil without error when the work is unknown.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, id string) (*work.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *work.Snapshot) error
}

// SentRepository records deliveries. GetSent returns nil without error when
// the work was never sent.
type SentRepository interface {
	GetSent(ctx context.Context, id string) (*work.SentRecord, error)
	SaveSent(ctx context.Context, record work.SentRecord) error
}

// Queue is the FIFO of work ids awaiting delivery. Dequeue with a zero
// timeout returns immediately; ok is false when the queue was empty.
type Queue interface {
	Enqueue(ctx context.Context, id string) error
	Dequeue(ctx context.Context, timeout time.Duration) (id string, ok bool, err error)
	Length(ctx context.Context) (int64, error)
}

type Stats struct {
	Snapshots int64 `json:"snapshots"`
	Sent      int64 `json:"sent"`
	Queued    int64 `json:"queued"`
}

// Store is the state store shared by the ingestion and delivery loops.
type Store interface {
	SnapshotRepository
	SentRepository
	Queue

	Stats(ctx context.Context) (Stats, error)
	// Cleanup removes snapshots last updated before olderThan together
	// with their sent records, returning the number of works removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
