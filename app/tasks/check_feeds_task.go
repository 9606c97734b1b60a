package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/workwatch/app/database"
	"github.com/lysyi3m/workwatch/app/feed"
	"github.com/lysyi3m/workwatch/app/work"
)

// PassStats summarizes one ingestion pass over every configured feed.
type PassStats struct {
	Feeds          int           `json:"feeds"`
	FailedFeeds    int           `json:"failed_feeds"`
	Entries        int           `json:"entries"`
	New            int           `json:"new"`
	AuthorChanged  int           `json:"author_changed"`
	ChapterChanged int           `json:"chapter_changed"`
	Unchanged      int           `json:"unchanged"`
	Filtered       int           `json:"filtered"`
	Invalid        int           `json:"invalid"`
	StoreErrors    int           `json:"store_errors"`
	Suppressed     int           `json:"suppressed"`
	Enqueued       int           `json:"enqueued"`
	Duration       time.Duration `json:"duration"`
	FinishedAt     time.Time     `json:"finished_at"`
}

type CheckFeedsTask struct {
	Task
	sources   []feed.Source
	fetcher   FeedFetcher
	store     database.Store
	languages *work.LanguageFilter
	cooldown  time.Duration
	feedDelay time.Duration
	now       func() time.Time
	stats     PassStats
}

func NewCheckFeedsTask(sources []feed.Source, fetcher FeedFetcher, store database.Store, languages *work.LanguageFilter, cooldown, feedDelay time.Duration) *CheckFeedsTask {
	return &CheckFeedsTask{
		Task:      NewTask(TaskTypeCheckFeeds),
		sources:   sources,
		fetcher:   fetcher,
		store:     store,
		languages: languages,
		cooldown:  cooldown,
		feedDelay: feedDelay,
		now:       time.Now,
	}
}

func (t *CheckFeedsTask) Stats() PassStats {
	return t.stats
}

// Execute runs one pass. Failures of a single feed or entry are logged and
// skipped. Cancellation is honored between feeds and entries only.
func (t *CheckFeedsTask) Execute(ctx context.Context) error {
	started := time.Now()

	for i, source := range t.sources {
		if i > 0 && !sleepCtx(ctx, t.feedDelay) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		t.processFeed(ctx, source)
	}

	t.stats.Duration = time.Since(started)
	t.stats.FinishedAt = t.now()

	slog.Info("Task completed",
		"type", "CheckFeeds",
		"duration", t.GetDuration(),
		"feeds", t.stats.Feeds,
		"failed_feeds", t.stats.FailedFeeds,
		"entries", t.stats.Entries,
		"new", t.stats.New,
		"author_changed", t.stats.AuthorChanged,
		"chapter_changed", t.stats.ChapterChanged,
		"unchanged", t.stats.Unchanged,
		"filtered", t.stats.Filtered,
		"invalid", t.stats.Invalid,
		"store_errors", t.stats.StoreErrors,
		"suppressed", t.stats.Suppressed,
		"enqueued", t.stats.Enqueued)

	return ctx.Err()
}

func (t *CheckFeedsTask) processFeed(ctx context.Context, source feed.Source) {
	// The feed in flight always completes, even during shutdown.
	opCtx := context.WithoutCancel(ctx)

	t.stats.Feeds++

	entries, err := t.fetcher.Fetch(opCtx, source.URL)
	if err != nil {
		t.stats.FailedFeeds++
		slog.Warn("Failed to fetch feed, skipping", "feed", source.Name, "error", err)
		return
	}
	if len(entries) == 0 {
		slog.Warn("Feed is empty, skipping", "feed", source.Name)
		return
	}

	slog.Debug("Feed fetched", "feed", source.Name, "entries", len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		t.stats.Entries++
		t.processEntry(opCtx, source, entry)
	}
}

func (t *CheckFeedsTask) processEntry(ctx context.Context, source feed.Source, entry feed.Entry) {
	identity, err := work.Resolve(entry, t.now())
	if err != nil {
		t.stats.Invalid++
		slog.Warn("Skipping entry without work id", "feed", source.Name, "error", err)
		return
	}

	fields := work.Extract(entry.Description)
	if !t.languages.Allow(fields.Language) {
		t.stats.Filtered++
		slog.Debug("Language not allowed, skipping", "work_id", identity.ID, "language", fields.Language)
		return
	}

	prev, err := t.store.GetSnapshot(ctx, identity.ID)
	if err != nil {
		t.stats.StoreErrors++
		slog.Warn("Failed to load snapshot, skipping", "work_id", identity.ID, "error", err)
		return
	}

	author := work.CleanText(entry.Author)
	reason := work.Classify(prev, author, fields.Chapters)

	switch reason {
	case work.Unchanged:
		t.stats.Unchanged++
		slog.Debug("Work unchanged", "work_id", identity.ID)
		return
	case work.New:
		t.stats.New++
	case work.AuthorChanged:
		t.stats.AuthorChanged++
	case work.ChapterChanged:
		t.stats.ChapterChanged++
	}

	snapshot := &work.Snapshot{
		ID:           identity.ID,
		Title:        work.CleanText(entry.Title),
		Link:         entry.Link,
		Author:       author,
		Published:    identity.Published,
		UpdatedAt:    identity.UpdatedAt,
		SourceFeed:   source.URL,
		ChangeReason: reason,
		Fields:       fields,
	}
	if err := t.store.SaveSnapshot(ctx, snapshot); err != nil {
		t.stats.StoreErrors++
		slog.Warn("Failed to save snapshot, skipping", "work_id", identity.ID, "error", err)
		return
	}

	sent, err := t.store.GetSent(ctx, identity.ID)
	if err != nil {
		// Unknown send history must not block a notification.
		slog.Warn("Failed to load sent record, enqueueing anyway", "work_id", identity.ID, "error", err)
		sent = nil
	}
	if work.RecentlyNotified(sent, t.cooldown, t.now()) {
		t.stats.Suppressed++
		slog.Info("Work notified recently, not enqueueing",
			"work_id", identity.ID,
			"reason", reason.String(),
			"sent_at", sent.SentAt)
		return
	}

	if err := t.store.Enqueue(ctx, identity.ID); err != nil {
		t.stats.StoreErrors++
		slog.Warn("Failed to enqueue work", "work_id", identity.ID, "error", err)
		return
	}

	t.stats.Enqueued++
	slog.Info("Work enqueued", "work_id", identity.ID, "reason", reason.String(), "feed", source.Name)
}
