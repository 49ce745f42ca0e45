package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/csmith/albumfinder/cache"
	"github.com/csmith/albumfinder/model"
)

// Cached wraps a HistorySource, storing the albums it returns in a cache and
// serving later requests from there.
type Cached struct {
	Source model.HistorySource
	Store  *cache.Store
	Key    string

	// MaxAge is how long cached albums remain usable. Zero means forever.
	MaxAge time.Duration
	// Refresh ignores any cached albums, but still saves the new ones.
	Refresh bool
}

// CacheKey builds a cache key for the albums of a user's listening history
func CacheKey(source, username, period string, limit int, enriched bool) string {
	key := fmt.Sprintf("%s_%s_%s_%d", source, username, period, limit)
	if enriched {
		key += "_mb"
	}
	return key
}

// Albums returns cached albums if there are any, or otherwise retrieves and caches them
func (c *Cached) Albums(ctx context.Context) ([]model.Album, error) {
	if !c.Refresh {
		var albums []model.Album
		timestamp, err := c.Store.Load(c.Key, &albums)
		switch {
		case err == nil && (c.MaxAge <= 0 || time.Since(timestamp) <= c.MaxAge):
			slog.Info("Using cached albums", "key", c.Key, "cached_at", timestamp.Format(time.DateTime), "count", len(albums))
			return albums, nil
		case err == nil:
			slog.Debug("Cached albums have expired", "key", c.Key, "cached_at", timestamp.Format(time.DateTime))
		case errors.Is(err, cache.ErrMiss):
			slog.Debug("No cached albums", "key", c.Key)
		default:
			slog.Warn("Cache file unusable, fetching fresh data", "key", c.Key, "error", err)
		}
	}

	albums, err := c.Source.Albums(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Store.Save(c.Key, albums); err != nil {
		slog.Warn("Failed to save albums to cache", "key", c.Key, "error", err)
	} else {
		slog.Debug("Saved albums to cache", "key", c.Key, "count", len(albums))
	}

	return albums, nil
}

var _ model.HistorySource = &Cached{}
