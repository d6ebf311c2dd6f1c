// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/selfcaststudios/studio-cms/internal/model"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want argon2id prefix", hash)
	}

	ok, err := CheckPassword("secret-password", hash)
	if err != nil {
		t.Fatalf("CheckPassword: %v", err)
	}
	if !ok {
		t.Error("correct password did not verify")
	}

	ok, err = CheckPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("CheckPassword: %v", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestVerifyArgon2MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"too few parts", "$argon2id$v=19$m=19456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyArgon2("password", tt.hash)
			if err == nil {
				t.Error("expected error for malformed hash")
			}
			if ok {
				t.Error("malformed hash verified")
			}
		})
	}
}

func TestVerifyUserPassword(t *testing.T) {
	hash, err := HashPassword("hashed-secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tests := []struct {
		name       string
		user       model.User
		password   string
		wantScheme string
		wantOK     bool
	}{
		{
			name:       "argon2 hash matches",
			user:       model.User{PasswordHash: hash},
			password:   "hashed-secret",
			wantScheme: "argon2id",
			wantOK:     true,
		},
		{
			name:     "argon2 hash rejects wrong password",
			user:     model.User{PasswordHash: hash},
			password: "wrong",
			wantOK:   false,
		},
		{
			name: "legacy plaintext matches when no hash stored",
			user: model.User{
				LegacyPassword: sql.NullString{String: "legacy-secret", Valid: true},
			},
			password:   "legacy-secret",
			wantScheme: "legacy-plaintext",
			wantOK:     true,
		},
		{
			name: "legacy plaintext ignored when hash present",
			user: model.User{
				PasswordHash:   hash,
				LegacyPassword: sql.NullString{String: "legacy-secret", Valid: true},
			},
			password: "legacy-secret",
			wantOK:   false,
		},
		{
			name:     "no credentials at all",
			user:     model.User{},
			password: "anything",
			wantOK:   false,
		},
		{
			name: "corrupt hash is a non-match, not an error",
			user: model.User{PasswordHash: "$argon2id$garbage"},
			// A corrupt record must not verify and must not blow up.
			password: "anything",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, ok := VerifyUserPassword(tt.password, &tt.user)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && scheme != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", scheme, tt.wantScheme)
			}
		})
	}
}
