// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/selfcaststudios/studio-cms/internal/middleware"
	"github.com/selfcaststudios/studio-cms/internal/model"
	"github.com/selfcaststudios/studio-cms/internal/tenant"
	"github.com/selfcaststudios/studio-cms/internal/util"
)

// collectionRequest bundles what every collection operation needs: the
// collection definition, the caller's identity, and the resolved tenant.
type collectionRequest struct {
	col      model.Collection
	identity *model.Identity
	owner    string
}

// resolveCollection parses the collection from the URL and runs tenant
// resolution. Returns false with the response written for unknown collections.
func (h *Handler) resolveCollection(w http.ResponseWriter, r *http.Request) (collectionRequest, bool) {
	name := chi.URLParam(r, "collection")
	col, ok := model.LookupCollection(name)
	if !ok {
		WriteBadRequest(w, "Unknown collection", map[string]string{"collection": name})
		return collectionRequest{}, false
	}

	identity := middleware.GetIdentity(r)
	owner := tenant.Resolve(identity, r.URL.Query().Get("clientId"))

	return collectionRequest{col: col, identity: identity, owner: owner}, true
}

// ListDocuments handles GET /api/{collection}. Authenticated callers get
// every document in their resolved tenant; anonymous callers get only
// published documents of public collections and must name the tenant with
// an explicit clientId.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.resolveCollection(w, r)
	if !ok {
		return
	}

	if cr.identity == nil {
		h.listPublicDocuments(w, r, cr.col)
		return
	}

	decision := tenant.Authorize(cr.identity, tenant.OpRead, tenant.Resource{OwnerID: cr.owner})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	docs, err := h.fetchDocuments(r.Context(), cr.col, cr.owner, false)
	if err != nil {
		slog.Error("failed to list documents", "collection", cr.col.Name, "error", err)
		WriteInternalError(w, "Failed to list documents")
		return
	}
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

// listPublicDocuments serves the anonymous read path: published documents
// only, explicit tenant required, responses cached per collection and tenant.
func (h *Handler) listPublicDocuments(w http.ResponseWriter, r *http.Request, col model.Collection) {
	decision := tenant.Authorize(nil, tenant.OpRead, tenant.Resource{PublicReadable: col.PublicRead})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	owner := r.URL.Query().Get("clientId")
	if owner == "" {
		WriteBadRequest(w, "clientId is required for public reads", nil)
		return
	}

	if payload, ok := h.cache.GetList(r.Context(), col.Name, owner); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	docs, err := h.fetchDocuments(r.Context(), col, owner, true)
	if err != nil {
		slog.Error("failed to list public documents", "collection", col.Name, "error", err)
		WriteInternalError(w, "Failed to list documents")
		return
	}

	payload, err := json.Marshal(Response{Data: docs, Meta: &Meta{Total: len(docs)}})
	if err != nil {
		WriteInternalError(w, "Failed to encode documents")
		return
	}
	h.cache.SetList(r.Context(), col.Name, owner, payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// fetchDocuments loads a tenant's documents, handling the singleton site
// collection which lives in its own table.
func (h *Handler) fetchDocuments(ctx context.Context, col model.Collection, owner string, publishedOnly bool) ([]model.Document, error) {
	if col.Singleton {
		doc, err := h.queries.GetSiteDocument(ctx, owner)
		if errors.Is(err, sql.ErrNoRows) {
			return []model.Document{}, nil
		}
		if err != nil {
			return nil, err
		}
		if publishedOnly && !doc.Published() {
			return []model.Document{}, nil
		}
		return []model.Document{doc}, nil
	}

	var (
		docs []model.Document
		err  error
	)
	if publishedOnly {
		docs, err = h.queries.ListPublishedDocuments(ctx, col.Name, owner)
	} else {
		docs, err = h.queries.ListDocuments(ctx, col.Name, owner)
	}
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// GetDocument handles GET /api/{collection}/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.resolveCollection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if cr.identity == nil {
		h.getPublicDocument(w, r, cr.col, id)
		return
	}

	decision := tenant.Authorize(cr.identity, tenant.OpRead, tenant.Resource{OwnerID: cr.owner})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	doc, err := h.loadDocument(r.Context(), cr.col, id, cr.owner)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "Document not found")
		return
	}
	if err != nil {
		slog.Error("failed to load document", "collection", cr.col.Name, "error", err)
		WriteInternalError(w, "Failed to load document")
		return
	}
	WriteSuccess(w, doc, nil)
}

// getPublicDocument serves an anonymous single-document read: the document
// must belong to a public collection and be published.
func (h *Handler) getPublicDocument(w http.ResponseWriter, r *http.Request, col model.Collection, id string) {
	decision := tenant.Authorize(nil, tenant.OpRead, tenant.Resource{PublicReadable: col.PublicRead})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	owner := r.URL.Query().Get("clientId")
	if owner == "" {
		WriteBadRequest(w, "clientId is required for public reads", nil)
		return
	}

	doc, err := h.loadDocument(r.Context(), col, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "Document not found")
		return
	}
	if err != nil {
		slog.Error("failed to load public document", "collection", col.Name, "error", err)
		WriteInternalError(w, "Failed to load document")
		return
	}
	if !doc.Published() {
		// Unpublished documents are invisible to anonymous readers, not
		// forbidden: existence is not disclosed.
		WriteNotFound(w, "Document not found")
		return
	}
	WriteSuccess(w, doc, nil)
}

func (h *Handler) loadDocument(ctx context.Context, col model.Collection, id, owner string) (model.Document, error) {
	if col.Singleton {
		doc, err := h.queries.GetSiteDocument(ctx, owner)
		if err != nil {
			return model.Document{}, err
		}
		// Singleton documents carry the tenant id; a stale or foreign id in
		// the path must not alias to the tenant's document.
		if doc.ID != id {
			return model.Document{}, sql.ErrNoRows
		}
		return doc, nil
	}
	return h.queries.GetDocument(ctx, col.Name, id, owner)
}

// CreateDocument handles POST /api/{collection}. Site documents upsert
// atomically; the messages collection additionally accepts anonymous
// submissions.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.resolveCollection(w, r)
	if !ok {
		return
	}

	decision := tenant.Authorize(cr.identity, tenant.OpWrite, tenant.Resource{
		OwnerID:           cr.owner,
		AnonymousWritable: cr.col.AnonymousCreate,
	})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	owner := cr.owner
	if cr.identity == nil {
		// Anonymous contact submissions must name the tenant explicitly.
		owner = r.URL.Query().Get("clientId")
		if owner == "" {
			WriteBadRequest(w, "clientId is required", nil)
			return
		}
	}

	body, ok := h.readDocumentBody(w, r, cr.col)
	if !ok {
		return
	}

	now := time.Now()
	if cr.col.Singleton {
		if err := h.queries.UpsertSiteDocument(r.Context(), owner, body, now); err != nil {
			slog.Error("failed to upsert site document", "owner", owner, "error", err)
			WriteInternalError(w, "Failed to save site")
			return
		}
		h.cache.Invalidate(r.Context(), cr.col.Name, owner)
		doc, err := h.queries.GetSiteDocument(r.Context(), owner)
		if err != nil {
			WriteInternalError(w, "Failed to load site")
			return
		}
		h.logContentWrite(r, "Site saved", cr.col.Name, owner)
		WriteSuccess(w, doc, nil)
		return
	}

	doc := model.Document{
		ID:         uuid.NewString(),
		Collection: cr.col.Name,
		OwnerID:    owner,
		Data:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.queries.InsertDocument(r.Context(), doc); err != nil {
		slog.Error("failed to insert document", "collection", cr.col.Name, "error", err)
		WriteInternalError(w, "Failed to create document")
		return
	}
	h.cache.Invalidate(r.Context(), cr.col.Name, owner)
	h.logContentWrite(r, "Document created", cr.col.Name, owner)
	WriteCreated(w, doc)
}

// UpdateDocument handles PUT /api/{collection}/{id}. For the singleton site
// collection the id is ignored and the write is an upsert.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.resolveCollection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	decision := tenant.Authorize(cr.identity, tenant.OpWrite, tenant.Resource{OwnerID: cr.owner})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	body, ok := h.readDocumentBody(w, r, cr.col)
	if !ok {
		return
	}

	now := time.Now()
	if cr.col.Singleton {
		if err := h.queries.UpsertSiteDocument(r.Context(), cr.owner, body, now); err != nil {
			slog.Error("failed to upsert site document", "owner", cr.owner, "error", err)
			WriteInternalError(w, "Failed to save site")
			return
		}
		h.cache.Invalidate(r.Context(), cr.col.Name, cr.owner)
		doc, err := h.queries.GetSiteDocument(r.Context(), cr.owner)
		if err != nil {
			WriteInternalError(w, "Failed to load site")
			return
		}
		h.logContentWrite(r, "Site saved", cr.col.Name, cr.owner)
		WriteSuccess(w, doc, nil)
		return
	}

	affected, err := h.queries.UpdateDocument(r.Context(), cr.col.Name, id, cr.owner, body, now)
	if err != nil {
		slog.Error("failed to update document", "collection", cr.col.Name, "error", err)
		WriteInternalError(w, "Failed to update document")
		return
	}
	if affected == 0 {
		WriteNotFound(w, "Document not found")
		return
	}
	h.cache.Invalidate(r.Context(), cr.col.Name, cr.owner)
	h.logContentWrite(r, "Document updated", cr.col.Name, cr.owner)

	doc, err := h.queries.GetDocument(r.Context(), cr.col.Name, id, cr.owner)
	if err != nil {
		WriteInternalError(w, "Failed to load document")
		return
	}
	WriteSuccess(w, doc, nil)
}

// DeleteDocument handles DELETE /api/{collection}/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.resolveCollection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	decision := tenant.Authorize(cr.identity, tenant.OpDelete, tenant.Resource{OwnerID: cr.owner})
	if !decision.Allowed {
		WriteDenied(w, decision.Reason)
		return
	}

	var (
		affected int64
		err      error
	)
	if cr.col.Singleton {
		affected, err = h.queries.DeleteSiteDocument(r.Context(), cr.owner)
	} else {
		affected, err = h.queries.DeleteDocument(r.Context(), cr.col.Name, id, cr.owner)
	}
	if err != nil {
		slog.Error("failed to delete document", "collection", cr.col.Name, "error", err)
		WriteInternalError(w, "Failed to delete document")
		return
	}
	if affected == 0 {
		WriteNotFound(w, "Document not found")
		return
	}
	h.cache.Invalidate(r.Context(), cr.col.Name, cr.owner)
	h.logContentWrite(r, "Document deleted", cr.col.Name, cr.owner)
	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// readDocumentBody decodes, sanitizes, and normalizes a document body.
// Rich text fields pass through the HTML sanitizer; a missing slug is
// derived from the collection's slug source field.
func (h *Handler) readDocumentBody(w http.ResponseWriter, r *http.Request, col model.Collection) (json.RawMessage, bool) {
	var body map[string]any
	if !decodeJSONBody(w, r, &body) {
		return nil, false
	}
	if body == nil {
		WriteBadRequest(w, "Document body is required", nil)
		return nil, false
	}

	for _, field := range col.RichTextFields {
		if s, ok := body[field].(string); ok {
			body[field] = h.sanitizer.Sanitize(s)
		}
	}

	if col.SlugSource != "" {
		if slug, ok := body["slug"].(string); ok && slug != "" {
			if !util.IsValidSlug(slug) {
				WriteBadRequest(w, "Invalid slug", map[string]string{"slug": "Use lowercase letters, numbers, and single hyphens"})
				return nil, false
			}
		} else if source, ok := body[col.SlugSource].(string); ok && source != "" {
			if slug := util.Slugify(source); slug != "" {
				body["slug"] = slug
			}
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		WriteBadRequest(w, "Invalid document body", nil)
		return nil, false
	}
	return raw, true
}

func (h *Handler) logContentWrite(r *http.Request, message, collection, owner string) {
	_ = h.audit.LogContentEvent(r.Context(), model.EventLevelInfo, message,
		middleware.GetIdentityIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"collection": collection, "owner_id": owner})
}
