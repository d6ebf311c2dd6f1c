// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/selfcaststudios/studio-cms/internal/store"
)

// Scheduler handles periodic maintenance like audit log retention.
type Scheduler struct {
	db            *sql.DB
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		db:            db,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start begins the scheduler with a daily audit retention job.
func (s *Scheduler) Start() error {
	// Purge expired audit events at 03:00 every day
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.purgeExpiredEvents(); err != nil {
			s.logger.Error("failed to purge expired audit events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// purgeExpiredEvents deletes audit events past the retention window.
func (s *Scheduler) purgeExpiredEvents() error {
	if s.retentionDays <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	queries := store.New(s.db)
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	deleted, err := queries.DeleteOldEvents(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("purged expired audit events", "count", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
