package cache

import (
	"context"
	"log/slog"
)

// Manager owns the cache backend and provides domain-level helpers.
// When a Redis backend is configured but unreachable it falls back to
// an in-process memory cache so the server can still start.
type Manager struct {
	backend Cacher
}

// NewManager wraps an existing backend.
func NewManager(backend Cacher) *Manager {
	return &Manager{backend: backend}
}

// NewManagerWithConfig creates a manager with a backend selected from config.
func NewManagerWithConfig(cfg CacheConfig) *Manager {
	backend, err := NewCache(cfg)
	if err != nil {
		slog.Warn("cache backend unavailable, falling back to memory",
			"type", cfg.Type,
			"error", err)
		backend = NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      cfg.DefaultTTL,
			MaxSize:         cfg.MaxSize,
			CleanupInterval: cfg.CleanupInterval,
		})
	}
	return &Manager{backend: backend}
}

// Backend returns the underlying cache.
func (m *Manager) Backend() Cacher {
	return m.backend
}

// Stats returns backend statistics when the backend supports them.
func (m *Manager) Stats() (CacheStats, bool) {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats(), true
	}
	return CacheStats{}, false
}

// ClearAll flushes every cached entry.
func (m *Manager) ClearAll(ctx context.Context) {
	if err := m.backend.Clear(ctx); err != nil {
		slog.Error("cache clear failed", "error", err)
		return
	}
	slog.Info("cache cleared")
}

// Close releases backend resources.
func (m *Manager) Close() error {
	return m.backend.Close()
}
