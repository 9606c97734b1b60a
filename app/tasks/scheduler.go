package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/workwatch/app/database"
	"github.com/lysyi3m/workwatch/app/feed"
	"github.com/lysyi3m/workwatch/app/notify"
	"github.com/lysyi3m/workwatch/app/work"
)

const cleanupInterval = 24 * time.Hour

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerConfig struct {
	Sources   []feed.Source
	Fetcher   FeedFetcher
	Store     database.Store
	Notifier  notify.Notifier
	Renderer  *work.Renderer
	Languages *work.LanguageFilter

	CheckInterval time.Duration
	SendInterval  time.Duration
	ErrorBackoff  time.Duration
	Cooldown      time.Duration
	FeedDelay     time.Duration
	// Retention of zero disables the cleanup loop.
	Retention time.Duration
}

// Scheduler runs the ingestion, delivery and cleanup loops, each in its own
// goroutine. A loop runs its task, then sleeps its interval, or the error
// backoff when the task failed.
type Scheduler struct {
	config SchedulerConfig
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	lastPass *PassStats
}

func NewScheduler(config SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.runLoop("ingestion", s.config.CheckInterval, func() TaskInterface {
		return NewCheckFeedsTask(s.config.Sources, s.config.Fetcher, s.config.Store,
			s.config.Languages, s.config.Cooldown, s.config.FeedDelay)
	})
	go s.runLoop("delivery", s.config.SendInterval, func() TaskInterface {
		return NewDeliverNotificationTask(s.config.Store, s.config.Notifier, s.config.Renderer)
	})

	if s.config.Retention > 0 {
		s.wg.Add(1)
		go s.runLoop("cleanup", cleanupInterval, func() TaskInterface {
			return NewCleanupTask(s.config.Store, s.config.Retention)
		})
	}

	slog.Info("Scheduler started",
		"feeds", len(s.config.Sources),
		"check_interval", s.config.CheckInterval,
		"send_interval", s.config.SendInterval,
		"retention", s.config.Retention)
}

// Stop cancels all loops and waits for the tasks in flight to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) LastPass() (PassStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastPass == nil {
		return PassStats{}, false
	}
	return *s.lastPass, true
}

func (s *Scheduler) runLoop(name string, interval time.Duration, newTask func() TaskInterface) {
	defer s.wg.Done()

	for {
		if s.ctx.Err() != nil {
			return
		}

		wait := interval
		task := newTask()
		if err := s.executeTask(task); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			slog.Error("Task execution failed",
				"loop", name,
				"type", string(task.GetType()),
				"id", task.GetID(),
				"backoff", s.config.ErrorBackoff,
				"error", err)
			wait = s.config.ErrorBackoff
		}

		if !sleepCtx(s.ctx, wait) {
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	task.Start()
	err = task.Execute(s.ctx)

	if check, ok := task.(*CheckFeedsTask); ok {
		stats := check.Stats()
		s.mu.Lock()
		s.lastPass = &stats
		s.mu.Unlock()
	}

	return err
}
