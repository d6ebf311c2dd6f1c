// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/selfcaststudios/studio-cms/internal/auth"
	"github.com/selfcaststudios/studio-cms/internal/cache"
	"github.com/selfcaststudios/studio-cms/internal/config"
	"github.com/selfcaststudios/studio-cms/internal/middleware"
	"github.com/selfcaststudios/studio-cms/internal/model"
	"github.com/selfcaststudios/studio-cms/internal/service"
	"github.com/selfcaststudios/studio-cms/internal/store"
	"github.com/selfcaststudios/studio-cms/internal/testutil"
)

const (
	testAdminEmail    = "owner@selfcast.example"
	testAdminPassword = "super-secret-admin-pw"
)

// testEnv bundles a handler wired to a temp database and a router matching
// the production route layout.
type testEnv struct {
	db      *sql.DB
	queries *store.Queries
	auth    *auth.Authenticator
	router  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	cfg := &config.Config{
		JWTSecret:     "0123456789abcdef0123456789abcdef",
		Env:           "development",
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
		CacheTTL:      300,
		CacheMax:      100,
	}

	authenticator := auth.NewAuthenticator(cfg.JWTSecret, time.Hour)
	audit := service.NewAuditService(db)
	contentCache := cache.NewContentCache(cfg)
	t.Cleanup(func() { _ = contentCache.Close() })

	// Generous limits: throttling behavior is covered by the middleware tests.
	loginProt := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 1000,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	h := NewHandler(db, cfg, authenticator, audit, contentCache, loginProt)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(authenticator))

		r.With(loginProt.Middleware()).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
		})

		r.Get("/{collection}", h.ListDocuments)
		r.Post("/{collection}", h.CreateDocument)
		r.Get("/{collection}/{id}", h.GetDocument)
		r.Put("/{collection}/{id}", h.UpdateDocument)
		r.Delete("/{collection}/{id}", h.DeleteDocument)
	})
	r.Get("/health", h.Health)

	return &testEnv{
		db:      db,
		queries: store.New(db),
		auth:    authenticator,
		router:  r,
	}
}

// do performs a request against the test router. A non-nil body is JSON
// encoded; a non-empty token rides in the session cookie.
func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	r := httptest.NewRequest(method, target, &buf)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) token(t *testing.T, identity *model.Identity) string {
	t.Helper()
	token, err := e.auth.Issue(identity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

// createUser inserts a user directly into the store and returns it.
func (e *testEnv) createUser(t *testing.T, email, password, role string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now()
	user, err := e.queries.CreateUser(context.Background(), store.CreateUserParams{
		ID:           "id-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         "Test",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v (body: %s)", err, w.Body.String())
	}
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v (body: %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(resp.Data, dst); err != nil {
		t.Fatalf("decoding data: %v (data: %s)", err, resp.Data)
	}
}
