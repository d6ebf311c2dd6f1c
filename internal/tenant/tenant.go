// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tenant implements the effective-tenant resolution and access
// policy that gate every data operation. Both are pure, stateless
// per-call predicates; they run strictly before any store access.
package tenant

import (
	"github.com/selfcaststudios/studio-cms/internal/model"
)

// Resolve computes the single tenant id a request may act on. An admin may
// select any tenant with an explicit clientId; everyone else is pinned to
// their own id. Anonymous requests resolve to the empty tenant.
func Resolve(identity *model.Identity, requestedClientID string) string {
	if identity == nil {
		return ""
	}
	if identity.IsAdmin() && requestedClientID != "" {
		return requestedClientID
	}
	return identity.ID
}

// Operation is a requested action on a resource.
type Operation string

// Operations.
const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Resource carries the attributes of the target the policy needs: who owns
// it and whether it participates in the two anonymous-allowed paths.
type Resource struct {
	// OwnerID is the tenant owning the resource.
	OwnerID string
	// PublicReadable marks published content that anonymous requests may read.
	PublicReadable bool
	// AnonymousWritable marks resources anonymous requests may create
	// (contact form submissions).
	AnonymousWritable bool
	// UserRecord marks identity records, which only admins may delete.
	UserRecord bool
}

// DenyReason distinguishes "log in" from "you cannot do this". The two map
// 1:1 to HTTP 401 and 403 and must never be conflated.
type DenyReason string

// Deny reasons.
const (
	ReasonUnauthorized DenyReason = "unauthorized"
	ReasonForbidden    DenyReason = "forbidden"
)

// Decision is the result of an Authorize call.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny returns a negative decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether identity may perform op on res. Rules apply
// in order:
//
//  1. Anonymous requests are denied except for reads of publicly readable
//     content and writes to anonymous-writable resources.
//  2. Admins are allowed everything on every tenant.
//  3. Users are allowed only within their own tenant.
//  4. Deleting user records additionally requires admin.
func Authorize(identity *model.Identity, op Operation, res Resource) Decision {
	if identity == nil {
		if op == OpRead && res.PublicReadable {
			return Allow
		}
		if op == OpWrite && res.AnonymousWritable {
			return Allow
		}
		return Deny(ReasonUnauthorized)
	}

	if res.UserRecord && op == OpDelete && !identity.IsAdmin() {
		return Deny(ReasonForbidden)
	}

	if identity.IsAdmin() {
		return Allow
	}

	if res.OwnerID == identity.ID {
		return Allow
	}
	return Deny(ReasonForbidden)
}
