// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/selfcaststudios/studio-cms/internal/auth"
	"github.com/selfcaststudios/studio-cms/internal/middleware"
	"github.com/selfcaststudios/studio-cms/internal/model"
	"github.com/selfcaststudios/studio-cms/internal/store"
)

// LoginRequest is the POST /api/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the successful login body. The token is also set as an
// HTTP-only cookie; the body copy exists for non-browser clients.
type LoginResponse struct {
	Token    string          `json:"token"`
	Identity *model.Identity `json:"user"`
}

// Login authenticates email/password credentials and issues a session token.
// The configured super-admin is checked before the store and never touches it;
// every failure path shares one 401 body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required", nil)
		return
	}

	ip := middleware.GetClientIP(r)
	userAgent := r.Header.Get("User-Agent")

	if locked, remaining := h.loginProt.IsAccountLocked(req.Email); locked {
		slog.Warn("login attempt on locked account", "ip", ip, "remaining", remaining.Round(time.Second))
		_ = h.audit.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account", nil, ip, userAgent, nil)
		WriteInvalidCredentials(w)
		return
	}

	identity, ok := h.authenticateCredentials(r, req.Email, req.Password)
	if !ok {
		if nowLocked, dur := h.loginProt.RecordFailedAttempt(req.Email); nowLocked {
			_ = h.audit.LogAuthEvent(r.Context(), model.EventLevelWarning, "Account locked after repeated failures", nil, ip, userAgent,
				map[string]any{"lock_duration": dur.String()})
		}
		_ = h.audit.LogAuthEvent(r.Context(), model.EventLevelWarning, "Failed login", nil, ip, userAgent, nil)
		WriteInvalidCredentials(w)
		return
	}

	token, err := h.auth.Issue(identity)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		WriteInternalError(w, "Failed to create session")
		return
	}

	h.loginProt.RecordSuccessfulLogin(req.Email)
	h.setSessionCookie(w, token)

	userID := identity.ID
	_ = h.audit.LogAuthEvent(r.Context(), model.EventLevelInfo, "Successful login", &userID, ip, userAgent, nil)

	WriteSuccess(w, LoginResponse{Token: token, Identity: identity}, nil)
}

// authenticateCredentials resolves email/password to an identity. Order
// matters: the super-admin comparison runs first with an exact, case-sensitive
// email match, and on a super-admin login the user store is never consulted.
func (h *Handler) authenticateCredentials(r *http.Request, email, password string) (*model.Identity, bool) {
	if email == h.cfg.AdminEmail {
		if subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.AdminPassword)) == 1 {
			return model.SuperAdmin(h.cfg.AdminEmail), true
		}
		return nil, false
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("user lookup failed during login", "error", err)
		}
		return nil, false
	}

	scheme, ok := auth.VerifyUserPassword(password, &user)
	if !ok {
		return nil, false
	}

	// Legacy plaintext matches are rehashed in place so the next login goes
	// through argon2. A rehash failure does not block the login.
	if scheme == "legacy-plaintext" {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				ID:           user.ID,
				PasswordHash: hash,
				UpdatedAt:    time.Now(),
			}); err != nil {
				slog.Error("failed to rehash legacy credential", "user_id", user.ID, "error", err)
			} else {
				slog.Info("legacy credential upgraded", "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to stamp last login", "user_id", user.ID, "error", err)
	}

	return user.Identity(), true
}

// setSessionCookie writes the session token as an HTTP-only cookie. Secure is
// set outside development so local HTTP testing still works.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.auth.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteStrictMode,
	})
}

// Logout clears the session cookie. Idempotent: logging out without a valid
// session still succeeds, since the token is stateless and there is no
// server-side session to destroy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteStrictMode,
	})

	if userID := middleware.GetIdentityIDPtr(r); userID != nil {
		_ = h.audit.LogAuthEvent(r.Context(), model.EventLevelInfo, "Logout", userID,
			middleware.GetClientIP(r), r.Header.Get("User-Agent"), nil)
	}

	WriteSuccess(w, map[string]bool{"success": true}, nil)
}

// Me returns the identity attached to the current session, or 401 for
// anonymous requests.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, identity, nil)
}
