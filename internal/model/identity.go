// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Identity, Document, and audit event structures.
package model

import (
	"database/sql"
	"time"
)

// User roles. RoleAdmin grants cross-tenant visibility.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// SuperAdminID is the reserved identity id for the configured super-admin
// account. It is never backed by a stored user record.
const SuperAdminID = "admin"

// User represents a stored CMS user. Each user owns exactly one tenant,
// keyed by the user's id.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	// LegacyPassword holds a plaintext credential imported from the previous
	// system. Checked only when no hash is present; cleared on next rehash.
	LegacyPassword sql.NullString `json:"-"`
	Role           string         `json:"role"`
	Name           string         `json:"name"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastLoginAt    sql.NullTime   `json:"last_login_at,omitempty"`
}

// Identity is an authenticated principal attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

// IsAdmin returns true if the identity has admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Identity returns the user's request identity.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
		Name:  u.Name,
	}
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SuperAdmin returns the synthetic identity for the configured super-admin.
func SuperAdmin(email string) *Identity {
	return &Identity{
		ID:    SuperAdminID,
		Email: email,
		Role:  RoleAdmin,
		Name:  "Administrator",
	}
}
