// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality
// including audit event logging.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mileusna/useragent"

	"github.com/selfcaststudios/studio-cms/internal/model"
	"github.com/selfcaststudios/studio-cms/internal/store"
)

// AuditService records security-relevant events to the audit log.
type AuditService struct {
	queries *store.Queries
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{
		queries: store.New(db),
	}
}

// LogEvent creates a new audit log entry.
func (s *AuditService) LogEvent(ctx context.Context, level, category, message string, userID *string, ipAddress string, metadata map[string]any) error {
	var nullUserID sql.NullString
	if userID != nil {
		nullUserID = sql.NullString{String: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		IPAddress: ipAddress,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to write audit event", "error", err)
		return err
	}

	return nil
}

// LogAuthEvent logs an authentication-related event, enriching the metadata
// with the parsed browser and OS from the user agent string.
func (s *AuditService) LogAuthEvent(ctx context.Context, level, message string, userID *string, ipAddress, userAgent string, metadata map[string]any) error {
	if userAgent != "" {
		ua := useragent.Parse(userAgent)
		if metadata == nil {
			metadata = map[string]any{}
		}
		if ua.Name != "" {
			metadata["browser"] = ua.Name
		}
		if ua.OS != "" {
			metadata["os"] = ua.OS
		}
	}
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, metadata)
}

// LogUserEvent logs a user-management event.
func (s *AuditService) LogUserEvent(ctx context.Context, level, message string, userID *string, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, ipAddress, metadata)
}

// LogContentEvent logs a content-related event.
func (s *AuditService) LogContentEvent(ctx context.Context, level, message string, userID *string, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryContent, message, userID, ipAddress, metadata)
}

// DeleteOldEvents removes audit entries older than the specified duration.
func (s *AuditService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}
