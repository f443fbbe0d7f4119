// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/cache"
	"github.com/socialit/cms-go/internal/config"
	"github.com/socialit/cms-go/internal/handler/api"
	"github.com/socialit/cms-go/internal/logging"
	"github.com/socialit/cms-go/internal/middleware"
	"github.com/socialit/cms-go/internal/service"
	"github.com/socialit/cms-go/internal/store"
	"github.com/socialit/cms-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "cms-go - Headless Content Management System\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_JWT_SECRET         Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_DB_PATH            SQLite database path (default: ./data/cms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_TOKEN_TTL          Access token lifetime in seconds (default: 86400)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_REDIS_URL          Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CMS_ADMIN_EMAIL        Bootstrap admin email (default: admin@example.com)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/socialit/cms-go\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("cms %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		if err := store.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	// Cache backend: Redis when configured, in-process memory otherwise
	cacheCfg := cache.DefaultCacheConfig()
	cacheCfg.DefaultTTL = time.Duration(cfg.CacheTTL) * time.Second
	cacheCfg.MaxSize = cfg.CacheMaxSize
	if cfg.UseRedisCache() {
		cacheCfg.Type = "redis"
		cacheCfg.RedisURL = cfg.RedisURL
		cacheCfg.Prefix = cfg.CachePrefix
	}
	cacheManager := cache.NewManagerWithConfig(cacheCfg)
	defer cacheManager.Close()
	slog.Info("cache initialized", "type", cacheCfg.Type)

	tokens := auth.NewTokenService(auth.TokenConfig{
		Issuer:     "cms-go",
		AccessTTL:  cfg.TokenLifetime(),
		SigningKey: []byte(cfg.JWTSecret),
	})

	events := service.NewEventService(db)
	settingsCache := cache.NewSettingsCache(cacheManager.Backend(), cacheCfg.DefaultTTL)
	settings := service.NewSettingsService(db, settingsCache, events)

	apiHandler := api.NewHandler(db, tokens, settings, events, versionInfo)

	var redisBackend *cache.RedisCache
	if rc, ok := cacheManager.Backend().(*cache.RedisCache); ok {
		redisBackend = rc
	}
	health := api.NewHealthHandler(db, redisBackend, versionInfo, cfg.Env)

	// Root router with the outer middleware stack
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.NewGlobalRateLimiter(100, 200).Middleware())

	r.Mount("/", apiHandler.Routes(health))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second, // Reduced from 120s to mitigate slowloris attacks
		MaxHeaderBytes:    1 << 20,          // 1MB max header size
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
