package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const settingsKeyPrefix = "settings:"

// SettingsCache is a read-through cache for site settings documents.
// Values are the raw JSON documents stored per settings key. A backend
// failure is treated as a miss so callers always fall through to the
// database.
type SettingsCache struct {
	backend Cacher
	ttl     time.Duration
}

// NewSettingsCache wraps a backend with the settings key namespace.
func NewSettingsCache(backend Cacher, ttl time.Duration) *SettingsCache {
	return &SettingsCache{backend: backend, ttl: ttl}
}

// Get returns the cached document for a settings key, if present.
func (c *SettingsCache) Get(ctx context.Context, key string) (string, bool) {
	data, err := c.backend.Get(ctx, settingsKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			slog.Debug("settings cache get failed", "key", key, "error", err)
		}
		return "", false
	}
	return string(data), true
}

// Set stores the document for a settings key.
func (c *SettingsCache) Set(ctx context.Context, key, value string) {
	if err := c.backend.Set(ctx, settingsKeyPrefix+key, []byte(value), c.ttl); err != nil {
		slog.Debug("settings cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops the cached document for a settings key.
func (c *SettingsCache) Invalidate(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, settingsKeyPrefix+key); err != nil {
		slog.Debug("settings cache invalidate failed", "key", key, "error", err)
	}
}
