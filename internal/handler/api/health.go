// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/socialit/cms-go/internal/cache"
	"github.com/socialit/cms-go/internal/version"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	db        *sql.DB
	redis     *cache.RedisCache // nil when the memory backend is in use
	version   version.Info
	env       string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. redis may be nil.
func NewHealthHandler(db *sql.DB, redis *cache.RedisCache, ver version.Info, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		version:   ver,
		env:       env,
		startTime: time.Now(),
	}
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthStatus is the detailed health response.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// SystemInfo contains runtime-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health - liveness probe for load balancers. It
// deliberately touches no dependencies; /health/detailed does that.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.env,
		"version":     h.version.Version,
	})
}

// HealthDetailed handles GET /health/detailed - per-dependency checks
// with latencies. Requires authentication at the router.
func (h *HealthHandler) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
	}
	if h.redis != nil {
		checks["redis"] = h.checkRedis(r.Context())
	}

	overall := "healthy"
	statusCode := http.StatusOK
	for _, c := range checks {
		if c.Status != "healthy" {
			overall = "degraded"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
	}

	WriteJSON(w, statusCode, status)
}

// checkDatabase verifies database connectivity with a bounded ping.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}
	return Check{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkRedis verifies the Redis cache backend is reachable.
func (h *HealthHandler) checkRedis(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.redis.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}
	return Check{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// systemInfo captures runtime statistics for the verbose health view.
func systemInfo() *SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(mem.Alloc),
		MemSys:       formatBytes(mem.Sys),
	}
}

// formatBytes renders a byte count in human-readable form.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
