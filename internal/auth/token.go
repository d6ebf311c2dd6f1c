// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/selfcaststudios/studio-cms/internal/model"
)

// Claims is the session token payload. The identity id travels in the
// registered Subject claim.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies stateless HS256 session tokens.
// There is no server-side session table: validity is signature plus expiry,
// and rotating the signing secret is the only global revocation lever.
type Authenticator struct {
	secret   []byte
	lifetime time.Duration
}

// NewAuthenticator creates an Authenticator with the given signing secret
// and token lifetime.
func NewAuthenticator(secret string, lifetime time.Duration) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		lifetime: lifetime,
	}
}

// Lifetime returns the configured token lifetime.
func (a *Authenticator) Lifetime() time.Duration {
	return a.lifetime
}

// Issue signs a session token for the identity.
func (a *Authenticator) Issue(identity *model.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: identity.Email,
		Role:  identity.Role,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies a raw credential and returns the identity it carries,
// or nil for any failure: missing token, bad signature, expiry, malformed
// payload. It never returns an error; rejecting anonymous requests is the
// access policy's job, not the authenticator's. Failures are logged without
// token contents.
func (a *Authenticator) Authenticate(raw string) *model.Identity {
	if raw == "" {
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		slog.Debug("session token rejected", "error", err)
		return nil
	}
	if !token.Valid || claims.Subject == "" {
		slog.Debug("session token invalid")
		return nil
	}

	return &model.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
		Name:  claims.Name,
	}
}
