// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selfcaststudios/studio-cms/internal/auth"
	"github.com/selfcaststudios/studio-cms/internal/middleware"
	"github.com/selfcaststudios/studio-cms/internal/model"
	"github.com/selfcaststudios/studio-cms/internal/store"
)

// ListUsers returns every user record. Admin only; the route is guarded by
// RequireAdmin. Credential columns never serialize.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		WriteInternalError(w, "Failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	WriteSuccess(w, users, &Meta{Total: len(users)})
}

// CreateUserRequest is the POST /api/users body.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// CreateUser creates a user and provisions the new tenant's site document in
// the same request. Admin only. The site write is an atomic upsert keyed by
// the user id, so re-running provisioning can never produce a second site.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	details := map[string]string{}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		details["email"] = "A valid email is required"
	}
	if len(req.Password) < 8 {
		details["password"] = "Password must be at least 8 characters"
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		details["role"] = "Role must be 'user' or 'admin'"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Invalid user", details)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), req.Email); err == nil {
		WriteBadRequest(w, "A user with this email already exists", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Name:         req.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	siteData, _ := json.Marshal(map[string]any{
		"title":  defaultSiteTitle(user.Name, user.Email),
		"status": "draft",
	})
	if err := h.queries.UpsertSiteDocument(r.Context(), user.ID, siteData, now); err != nil {
		// The user exists but the tenant site does not; surface it loudly so
		// an operator can re-run provisioning via a site upsert.
		slog.Error("failed to provision site for new user", "user_id", user.ID, "error", err)
		WriteInternalError(w, "User created but site provisioning failed")
		return
	}

	actorID := middleware.GetIdentityIDPtr(r)
	_ = h.audit.LogUserEvent(r.Context(), model.EventLevelInfo, "User created", actorID,
		middleware.GetClientIP(r), map[string]any{"new_user_id": user.ID, "role": user.Role})

	WriteCreated(w, user)
}

// defaultSiteTitle picks the initial site title for a freshly provisioned
// tenant.
func defaultSiteTitle(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
