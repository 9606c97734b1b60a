package database

import (
	"context"
	"fmt"
	"strings"
)

// NewStore opens the backend selected by the URL scheme: redis:// and
// rediss:// for Redis, sqlite://<path> for a local database file.
func NewStore(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisStore(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite store URL has no path: %s", url)
		}
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported store URL: %s", url)
	}
}
