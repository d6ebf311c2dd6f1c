// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides REST API handlers for the CMS.
package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/microcosm-cc/bluemonday"

	"github.com/selfcaststudios/studio-cms/internal/auth"
	"github.com/selfcaststudios/studio-cms/internal/cache"
	"github.com/selfcaststudios/studio-cms/internal/config"
	"github.com/selfcaststudios/studio-cms/internal/middleware"
	"github.com/selfcaststudios/studio-cms/internal/service"
	"github.com/selfcaststudios/studio-cms/internal/store"
	"github.com/selfcaststudios/studio-cms/internal/tenant"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	queries   *store.Queries
	cfg       *config.Config
	auth      *auth.Authenticator
	audit     *service.AuditService
	cache     *cache.ContentCache
	loginProt *middleware.LoginProtection
	sanitizer *bluemonday.Policy
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, cfg *config.Config, a *auth.Authenticator, audit *service.AuditService, contentCache *cache.ContentCache, loginProt *middleware.LoginProtection) *Handler {
	return &Handler{
		db:        db,
		queries:   store.New(db),
		cfg:       cfg,
		auth:      a,
		audit:     audit,
		cache:     contentCache,
		loginProt: loginProt,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "invalid_input", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteInvalidCredentials writes the single 401 used for every login
// failure. Wrong email, wrong password, and locked-out attempts all share
// this body so responses cannot be used to enumerate accounts.
func WriteInvalidCredentials(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "store_unavailable", message, nil)
}

// WriteDenied maps an access policy denial to its HTTP response.
// The two deny reasons map 1:1 to 401 and 403 and are never conflated.
func WriteDenied(w http.ResponseWriter, reason tenant.DenyReason) {
	if reason == tenant.ReasonForbidden {
		WriteForbidden(w, "You do not have access to this resource")
		return
	}
	WriteUnauthorized(w, "Authentication required")
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		Version: "v1",
	}, nil)
}

// decodeJSONBody decodes the request body into dst, limiting the body size.
// Returns false with a 400 already written when the body is not valid JSON.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}
