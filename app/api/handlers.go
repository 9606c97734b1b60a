package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/workwatch/app/tasks"
)

const storeTimeout = 5 * time.Second

func NewHandler(store StatusStore, scheduler tasks.TaskSchedulerInterface, feeds int, version string) *Handler {
	return &Handler{
		store:     store,
		scheduler: scheduler,
		feeds:     feeds,
		version:   version,
	}
}

func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "workwatch",
		"version":     h.version,
		"description": "Archive feed watcher with change detection and channel notifications",
		"endpoints": gin.H{
			"health": "/health",
			"stats":  "/stats",
		},
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("Store health check failed", "error", err)
		health["status"] = "unavailable"
		health["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["status"] = "ok"

	if queued, err := h.store.Length(ctx); err == nil {
		health["queue"] = queued
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		slog.Error("Store error", "operation", "stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store error"})
		return
	}

	response := gin.H{
		"feeds":     h.feeds,
		"snapshots": stats.Snapshots,
		"sent":      stats.Sent,
		"queued":    stats.Queued,
		"last_pass": nil,
	}

	if pass, ok := h.scheduler.LastPass(); ok {
		response["last_pass"] = pass
	}

	c.JSON(http.StatusOK, response)
}
