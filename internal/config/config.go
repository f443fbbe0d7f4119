// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"CMS_DB_PATH" envDefault:"./data/cms.db"`
	JWTSecret  string `env:"CMS_JWT_SECRET,required"`
	TokenTTL   int    `env:"CMS_TOKEN_TTL" envDefault:"86400"` // Access token lifetime in seconds
	ServerHost string `env:"CMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"CMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"CMS_ENV" envDefault:"development"`
	LogLevel   string `env:"CMS_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"CMS_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix  string `env:"CMS_CACHE_PREFIX" envDefault:"cms:"`   // Redis key prefix
	CacheTTL     int    `env:"CMS_CACHE_TTL" envDefault:"3600"`      // Default cache TTL in seconds
	CacheMaxSize int    `env:"CMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Bootstrap admin account used by seeding
	AdminEmail    string `env:"CMS_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"CMS_ADMIN_PASSWORD" envDefault:"admin123"`

	// Seeding configuration
	DoSeed bool `env:"CMS_DO_SEED" envDefault:"true"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// TokenLifetime returns the configured access token lifetime.
func (c Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
// HMAC-SHA256 keys shorter than the block size weaken the MAC.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate signing secret length
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("CMS_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("CMS_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("CMS_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("CMS_TOKEN_TTL must be positive, got %d", cfg.TokenTTL)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
