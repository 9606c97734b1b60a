package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/workwatch/app/api"
	"github.com/lysyi3m/workwatch/app/cfg"
	"github.com/lysyi3m/workwatch/app/database"
	"github.com/lysyi3m/workwatch/app/tasks"
	"github.com/lysyi3m/workwatch/app/work"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

type runCommand struct {
	opts *cfg.Options
}

func (r *runCommand) Execute(args []string) error {
	c, err := loadConfig(r.opts, true)
	if err != nil {
		return err
	}

	slog.Info("Starting workwatch", "version", c.Version)

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, err := database.NewStore(startCtx, c.StoreURL)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	httpClient := newHTTPClient(c)

	notifier, err := newNotifier(c, httpClient)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}
	defer notifier.Close()

	if err := notifier.Probe(startCtx); err != nil {
		slog.Warn("Notifier probe failed, continuing", "notifier", c.Notifier, "error", err)
	}

	scheduler := tasks.NewScheduler(tasks.SchedulerConfig{
		Sources:       c.Sources,
		Fetcher:       newFetcher(c, httpClient),
		Store:         store,
		Notifier:      notifier,
		Renderer:      work.NewRenderer(c.MirrorHost),
		Languages:     work.NewLanguageFilter(c.Languages),
		CheckInterval: c.CheckInterval,
		SendInterval:  c.SendInterval,
		ErrorBackoff:  c.ErrorBackoff,
		Cooldown:      c.Cooldown,
		FeedDelay:     c.FeedDelay,
		Retention:     c.Retention,
	})
	scheduler.Start()

	var httpServer *http.Server
	serverErrChan := make(chan error, 1)
	if c.Port != "" {
		httpServer = &http.Server{
			Addr:         ":" + c.Port,
			Handler:      api.NewServer(api.NewHandler(store, scheduler, len(c.Sources), c.Version)),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP server", "port", c.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
		slog.Error("Server error", "error", runErr)
	}

	slog.Info("Shutting down")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	scheduler.Stop()

	slog.Info("Shutdown complete")
	return runErr
}

type checkCommand struct {
	opts *cfg.Options
}

func (r *checkCommand) Execute(args []string) error {
	c, err := loadConfig(r.opts, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.NewStore(ctx, c.StoreURL)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	task := tasks.NewCheckFeedsTask(c.Sources, newFetcher(c, newHTTPClient(c)), store,
		work.NewLanguageFilter(c.Languages), c.Cooldown, c.FeedDelay)
	task.Start()

	if err := task.Execute(ctx); err != nil {
		return fmt.Errorf("check interrupted: %w", err)
	}

	queued, err := store.Length(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue length: %w", err)
	}

	stats := task.Stats()
	slog.Info("Check finished",
		"feeds", stats.Feeds,
		"failed_feeds", stats.FailedFeeds,
		"enqueued", stats.Enqueued,
		"queue", queued)

	return nil
}

type testConnectionCommand struct {
	opts *cfg.Options
}

func (r *testConnectionCommand) Execute(args []string) error {
	c, err := loadConfig(r.opts, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	var failures []error

	store, err := database.NewStore(ctx, c.StoreURL)
	if err != nil {
		failures = append(failures, fmt.Errorf("state store: %w", err))
	} else {
		defer store.Close()
		if err := store.Ping(ctx); err != nil {
			failures = append(failures, fmt.Errorf("state store: %w", err))
		} else {
			slog.Info("State store reachable", "url", redactURL(c.StoreURL))
		}
	}

	notifier, err := newNotifier(c, newHTTPClient(c))
	if err != nil {
		failures = append(failures, fmt.Errorf("notifier: %w", err))
	} else {
		defer notifier.Close()
		if err := notifier.Probe(ctx); err != nil {
			failures = append(failures, fmt.Errorf("notifier: %w", err))
		} else {
			slog.Info("Notifier reachable", "notifier", c.Notifier)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("connection test failed: %w", errors.Join(failures...))
	}

	slog.Info("All connections OK")
	return nil
}
