// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCS_JWT_SECRET", "Abc123!Abc123!Abc123!Abc123!Abc123!")
	t.Setenv("SCS_ADMIN_EMAIL", "owner@selfcast.example")
	t.Setenv("SCS_ADMIN_PASSWORD", "admin-password")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "./data/studio.db" {
		t.Errorf("DBPath = %q, want ./data/studio.db", cfg.DBPath)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.TokenLifetimeDays != 7 {
		t.Errorf("TokenLifetimeDays = %d, want 7", cfg.TokenLifetimeDays)
	}
	if cfg.EventRetentionDays != 90 {
		t.Errorf("EventRetentionDays = %d, want 90", cfg.EventRetentionDays)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q, want localhost:8080", cfg.ServerAddr())
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache true without SCS_REDIS_URL")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCS_JWT_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("short secret accepted")
	} else if !strings.Contains(err.Error(), "SCS_JWT_SECRET") {
		t.Errorf("error = %v, want mention of SCS_JWT_SECRET", err)
	}
}

func TestLoadRejectsKnownWeakSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCS_JWT_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("known default secret accepted")
	}
}

func TestLoadLowEntropySecret(t *testing.T) {
	setRequiredEnv(t)
	// One character class only
	t.Setenv("SCS_JWT_SECRET", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	t.Run("warns in development", func(t *testing.T) {
		t.Setenv("SCS_ENV", "development")
		if _, err := Load(); err != nil {
			t.Errorf("low-entropy secret refused in development: %v", err)
		}
	})

	t.Run("refuses in production", func(t *testing.T) {
		t.Setenv("SCS_ENV", "production")
		if _, err := Load(); err == nil {
			t.Error("low-entropy secret accepted in production")
		}
	})
}

func TestLoadRequiresAdminAccount(t *testing.T) {
	setRequiredEnv(t)
	// t.Setenv registers the restore; unset for the duration of the test
	os.Unsetenv("SCS_ADMIN_EMAIL")

	if _, err := Load(); err == nil {
		t.Fatal("missing admin email accepted")
	}
}

func TestLoadRejectsNonPositiveTokenLifetime(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCS_TOKEN_LIFETIME_DAYS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("zero token lifetime accepted")
	}
}
