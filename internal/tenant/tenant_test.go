// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package tenant

import (
	"testing"

	"github.com/selfcaststudios/studio-cms/internal/model"
)

func adminIdentity() *model.Identity {
	return &model.Identity{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}
}

func userIdentity(id string) *model.Identity {
	return &model.Identity{ID: id, Email: id + "@example.com", Role: model.RoleUser}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		identity  *model.Identity
		requested string
		want      string
	}{
		{
			name:      "anonymous resolves to empty tenant",
			identity:  nil,
			requested: "u1",
			want:      "",
		},
		{
			name:      "admin with clientId selects that tenant",
			identity:  adminIdentity(),
			requested: "u1",
			want:      "u1",
		},
		{
			name:      "admin without clientId falls back to own id",
			identity:  adminIdentity(),
			requested: "",
			want:      "admin-1",
		},
		{
			name:      "user is pinned to own id",
			identity:  userIdentity("u1"),
			requested: "",
			want:      "u1",
		},
		{
			name:      "user cannot select another tenant",
			identity:  userIdentity("u1"),
			requested: "u2",
			want:      "u1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.identity, tt.requested)
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthorizeAnonymous(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		res     Resource
		allowed bool
	}{
		{
			name:    "read public content allowed",
			op:      OpRead,
			res:     Resource{PublicReadable: true},
			allowed: true,
		},
		{
			name:    "read private content denied",
			op:      OpRead,
			res:     Resource{OwnerID: "u1"},
			allowed: false,
		},
		{
			name:    "write anonymous-writable allowed",
			op:      OpWrite,
			res:     Resource{AnonymousWritable: true},
			allowed: true,
		},
		{
			name:    "write ordinary resource denied",
			op:      OpWrite,
			res:     Resource{OwnerID: "u1"},
			allowed: false,
		},
		{
			name:    "delete always denied",
			op:      OpDelete,
			res:     Resource{PublicReadable: true, AnonymousWritable: true},
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(nil, tt.op, tt.res)
			if got.Allowed != tt.allowed {
				t.Errorf("Authorize() allowed = %v, want %v", got.Allowed, tt.allowed)
			}
			if !tt.allowed && got.Reason != ReasonUnauthorized {
				t.Errorf("anonymous denial reason = %q, want %q", got.Reason, ReasonUnauthorized)
			}
		})
	}
}

func TestAuthorizeUser(t *testing.T) {
	u1 := userIdentity("u1")

	t.Run("own tenant allowed for every operation", func(t *testing.T) {
		for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
			got := Authorize(u1, op, Resource{OwnerID: "u1"})
			if !got.Allowed {
				t.Errorf("Authorize(%s) on own tenant denied", op)
			}
		}
	})

	t.Run("foreign tenant denied with forbidden", func(t *testing.T) {
		for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
			got := Authorize(u1, op, Resource{OwnerID: "u2"})
			if got.Allowed {
				t.Errorf("Authorize(%s) on foreign tenant allowed", op)
			}
			if got.Reason != ReasonForbidden {
				t.Errorf("reason = %q, want %q: authenticated denial is 403, not 401", got.Reason, ReasonForbidden)
			}
		}
	})

	t.Run("user cannot delete user records, even own", func(t *testing.T) {
		got := Authorize(u1, OpDelete, Resource{OwnerID: "u1", UserRecord: true})
		if got.Allowed {
			t.Error("user delete of user record allowed")
		}
		if got.Reason != ReasonForbidden {
			t.Errorf("reason = %q, want %q", got.Reason, ReasonForbidden)
		}
	})
}

func TestAuthorizeAdmin(t *testing.T) {
	admin := adminIdentity()

	for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
		got := Authorize(admin, op, Resource{OwnerID: "someone-else"})
		if !got.Allowed {
			t.Errorf("Authorize(%s) denied for admin", op)
		}
	}

	t.Run("admin may delete user records", func(t *testing.T) {
		got := Authorize(admin, OpDelete, Resource{OwnerID: "u1", UserRecord: true})
		if !got.Allowed {
			t.Error("admin delete of user record denied")
		}
	})
}
