package tasks

import (
	"context"

	"github.com/lysyi3m/workwatch/app/feed"
)

// FeedFetcher returns the entries of a single feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Entry, error)
}

// TaskSchedulerInterface defines the interface for the background loops.
// Used by the main application to start and stop ingestion, delivery and
// cleanup, and by the ops API to report the most recent pass.
// Example usage:
//
//	scheduler := NewScheduler(config)
//	scheduler.Start()
//	defer scheduler.Stop()
//	stats, ok := scheduler.LastPass()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	LastPass() (PassStats, bool)
}
