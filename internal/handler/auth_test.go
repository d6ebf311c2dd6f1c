// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/selfcaststudios/studio-cms/internal/middleware"
	"github.com/selfcaststudios/studio-cms/internal/model"
)

func TestLoginSuperAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp LoginResponse
	decodeData(t, w, &resp)
	if resp.Token == "" {
		t.Error("empty token in login response")
	}
	if resp.Identity.ID != model.SuperAdminID {
		t.Errorf("identity id = %q, want %q", resp.Identity.ID, model.SuperAdminID)
	}
	if resp.Identity.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", resp.Identity.Role)
	}

	// Session cookie set, HTTP-only
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TokenCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie is not HTTP-only")
	}
	if sessionCookie.Value != resp.Token {
		t.Error("cookie token differs from body token")
	}
}

func TestLoginSuperAdminWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    testAdminEmail,
		Password: "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "invalid_credentials" {
		t.Errorf("code = %q, want invalid_credentials", resp.Error.Code)
	}
}

func TestLoginSuperAdminEmailCaseSensitive(t *testing.T) {
	env := newTestEnv(t)

	// A case variant of the admin email is not the super-admin; with no such
	// user stored it is just a failed login.
	w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    strings.ToUpper(testAdminEmail),
		Password: testAdminPassword,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginStoredUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "client@example.com", "client-password", model.RoleUser)

	t.Run("correct password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
			Email:    "client@example.com",
			Password: "client-password",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
		}

		var resp LoginResponse
		decodeData(t, w, &resp)
		if resp.Identity.ID != user.ID {
			t.Errorf("identity id = %q, want %q", resp.Identity.ID, user.ID)
		}
	})

	t.Run("wrong password is 401, not 500", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
			Email:    "client@example.com",
			Password: "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("unknown email shares the same 401", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if resp := decodeError(t, w); resp.Error.Code != "invalid_credentials" {
			t.Errorf("code = %q, want invalid_credentials", resp.Error.Code)
		}
	})
}

func TestLoginLegacyPlaintextUpgrade(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "legacy@example.com", "unused", model.RoleUser)

	// Imported account: no hash, plaintext credential
	if _, err := env.db.Exec(
		"UPDATE users SET password_hash = '', legacy_password = 'old-password' WHERE id = ?", user.ID,
	); err != nil {
		t.Fatalf("preparing legacy user: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    "legacy@example.com",
		Password: "old-password",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	// The credential is rehashed on login and the plaintext cleared
	got, err := env.queries.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !strings.HasPrefix(got.PasswordHash, "$argon2id$") {
		t.Errorf("PasswordHash = %q, want argon2id hash after upgrade", got.PasswordHash)
	}
	if got.LegacyPassword.Valid {
		t.Error("legacy plaintext survived the upgrade")
	}

	// Next login goes through the hash
	w = env.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    "legacy@example.com",
		Password: "old-password",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("second login status = %d, want 200", w.Code)
	}
}

func TestLoginInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing fields", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "x@example.com"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		r := env.do(t, http.MethodPost, "/api/login", "", "not-an-object")
		if r.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", r.Code)
		}
	})
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, &model.Identity{ID: "u1", Email: "u1@example.com", Role: model.RoleUser})

	t.Run("me with session", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/me", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var identity model.Identity
		decodeData(t, w, &identity)
		if identity.ID != "u1" {
			t.Errorf("id = %q, want u1", identity.ID)
		}
	})

	t.Run("me anonymous is 401", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/me", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/logout", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var body struct {
			Success bool `json:"success"`
		}
		decodeData(t, w, &body)
		if !body.Success {
			t.Errorf("body = %s, want success=true", w.Body.String())
		}
		var cleared bool
		for _, c := range w.Result().Cookies() {
			if c.Name == middleware.TokenCookieName && c.MaxAge < 0 && c.Value == "" {
				cleared = true
			}
		}
		if !cleared {
			t.Error("logout did not clear the session cookie")
		}
	})

	t.Run("logout without a session still succeeds", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/logout", "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
