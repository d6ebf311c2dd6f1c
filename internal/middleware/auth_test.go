// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/selfcaststudios/studio-cms/internal/auth"
	"github.com/selfcaststudios/studio-cms/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testAuthenticator() *auth.Authenticator {
	return auth.NewAuthenticator(testSecret, time.Hour)
}

func issueToken(t *testing.T, a *auth.Authenticator, identity *model.Identity) string {
	t.Helper()
	token, err := a.Issue(identity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestExtractCredential(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		want   string
	}{
		{
			name:  "no credential",
			setup: func(r *http.Request) {},
			want:  "",
		},
		{
			name: "cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "cookie-token"})
			},
			want: "cookie-token",
		},
		{
			name: "bearer header",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer header-token")
			},
			want: "header-token",
		},
		{
			name: "bearer is case-insensitive",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer header-token")
			},
			want: "header-token",
		},
		{
			name: "cookie takes precedence over header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "cookie-token"})
				r.Header.Set("Authorization", "Bearer header-token")
			},
			want: "cookie-token",
		},
		{
			name: "non-bearer scheme ignored",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
			want: "",
		},
		{
			name: "empty cookie falls through to header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: ""})
				r.Header.Set("Authorization", "Bearer header-token")
			},
			want: "header-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.setup(r)
			if got := ExtractCredential(r); got != tt.want {
				t.Errorf("ExtractCredential() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	a := testAuthenticator()

	var captured *model.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(a)(next)

	t.Run("valid token attaches identity", func(t *testing.T) {
		captured = nil
		token := issueToken(t, a, &model.Identity{ID: "u1", Email: "u1@example.com", Role: model.RoleUser})

		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if captured == nil || captured.ID != "u1" {
			t.Errorf("identity = %+v, want id u1", captured)
		}
	})

	t.Run("invalid token passes through as anonymous", func(t *testing.T) {
		captured = &model.Identity{ID: "stale"}

		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "garbage"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		// The middleware never rejects: the request reaches the handler
		// without an identity.
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if captured != nil {
			t.Errorf("identity = %+v, want nil", captured)
		}
	})

	t.Run("missing token passes through as anonymous", func(t *testing.T) {
		captured = &model.Identity{ID: "stale"}

		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if captured != nil {
			t.Errorf("identity = %+v, want nil", captured)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	a := testAuthenticator()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(a)(RequireAuth()(next))

	t.Run("anonymous gets 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("authenticated passes", func(t *testing.T) {
		token := issueToken(t, a, &model.Identity{ID: "u1", Role: model.RoleUser})
		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	a := testAuthenticator()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(a)(RequireAdmin()(next))

	t.Run("anonymous gets 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("non-admin gets 403", func(t *testing.T) {
		token := issueToken(t, a, &model.Identity{ID: "u1", Role: model.RoleUser})
		r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("admin passes", func(t *testing.T) {
		token := issueToken(t, a, &model.Identity{ID: "a1", Role: model.RoleAdmin})
		r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
