// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"your-secret-key-here-change-in-production",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"SCS_DB_PATH" envDefault:"./data/studio.db"`
	JWTSecret  string `env:"SCS_JWT_SECRET,required"`
	ServerHost string `env:"SCS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"SCS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"SCS_ENV" envDefault:"development"`
	LogLevel   string `env:"SCS_LOG_LEVEL" envDefault:"info"`

	// Super-admin account. Not backed by a user record; the email comparison
	// at login is exact and case-sensitive.
	AdminEmail    string `env:"SCS_ADMIN_EMAIL,required"`
	AdminPassword string `env:"SCS_ADMIN_PASSWORD,required"`

	// Session token lifetime in days. Rotating SCS_JWT_SECRET is the only way
	// to revoke issued tokens before they expire.
	TokenLifetimeDays int `env:"SCS_TOKEN_LIFETIME_DAYS" envDefault:"7"`

	// Cache configuration
	RedisURL    string `env:"SCS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix string `env:"SCS_CACHE_PREFIX" envDefault:"scs:"`    // Redis key prefix
	CacheTTL    int    `env:"SCS_CACHE_TTL" envDefault:"300"`        // Public content cache TTL in seconds
	CacheMax    int    `env:"SCS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Audit log retention in days; older events are purged by the scheduler.
	EventRetentionDays int `env:"SCS_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"SCS_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate signing secret length
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("SCS_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("SCS_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets in development; refuse to start in production
	if !hasMinimumEntropy(cfg.JWTSecret) {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SCS_JWT_SECRET has low character diversity and cannot be used in production; " +
				"generate a random secret with: openssl rand -base64 32")
		}
		slog.Warn("SCS_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.TokenLifetimeDays <= 0 {
		return nil, fmt.Errorf("SCS_TOKEN_LIFETIME_DAYS must be positive, got %d", cfg.TokenLifetimeDays)
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
