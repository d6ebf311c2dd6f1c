package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/selfcaststudios/studio-cms/internal/auth"
	"github.com/selfcaststudios/studio-cms/internal/model"
)

// Demo client credentials, created only when seeding is enabled.
const (
	DemoClientEmail    = "client@example.com"
	DemoClientPassword = "changeme"
	DemoClientName     = "Demo Client"
)

// Seed creates a demo client with a provisioned site document. A no-op
// unless enabled; the super-admin account comes from configuration and is
// never stored.
func Seed(ctx context.Context, db *sql.DB, enabled bool) error {
	if !enabled {
		return nil
	}

	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, DemoClientEmail)
	if err == nil {
		slog.Info("demo client already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for demo client: %w", err)
	}

	passwordHash, err := auth.HashPassword(DemoClientPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		ID:           uuid.NewString(),
		Email:        DemoClientEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		Name:         DemoClientName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating demo client: %w", err)
	}

	site, _ := json.Marshal(map[string]any{
		"title":    DemoClientName,
		"template": "default",
	})
	if err := queries.UpsertSiteDocument(ctx, user.ID, site, now); err != nil {
		return fmt.Errorf("provisioning demo site: %w", err)
	}

	slog.Info("created demo client",
		"id", user.ID,
		"email", user.Email,
	)

	return nil
}
