// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Document is a tenant-owned content record. The body is schemaless JSON;
// ownership and lifecycle columns are first-class.
type Document struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	OwnerID    string          `json:"userId"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Published reports whether the document body marks itself as published.
// Both the string status field and the boolean flag forms are in use.
func (d *Document) Published() bool {
	var body struct {
		Status    string `json:"status"`
		Published *bool  `json:"published"`
	}
	if err := json.Unmarshal(d.Data, &body); err != nil {
		return false
	}
	if body.Published != nil {
		return *body.Published
	}
	return body.Status == "published"
}

// Collection describes a content collection and its access attributes.
type Collection struct {
	Name string
	// Singleton collections hold at most one document per tenant and use
	// upsert semantics on write.
	Singleton bool
	// PublicRead allows anonymous reads of published documents.
	PublicRead bool
	// AnonymousCreate allows unauthenticated document creation
	// (contact form submissions).
	AnonymousCreate bool
	// RichTextFields are sanitized on write.
	RichTextFields []string
	// SlugSource names the field a missing slug is derived from.
	SlugSource string
}

// Collections is the registry of content collections, keyed by URL name.
var Collections = map[string]Collection{
	"sites":       {Name: "sites", Singleton: true, PublicRead: true, RichTextFields: []string{"aboutContent", "footerText"}},
	"blogposts":   {Name: "blogposts", PublicRead: true, RichTextFields: []string{"content"}, SlugSource: "title"},
	"socialposts": {Name: "socialposts", PublicRead: true, RichTextFields: []string{"content"}},
	"biocards":    {Name: "biocards", PublicRead: true, RichTextFields: []string{"description"}},
	"quotes":      {Name: "quotes", PublicRead: true},
	"media":       {Name: "media", PublicRead: true},
	"projects":    {Name: "projects", PublicRead: true, RichTextFields: []string{"description"}},
	"messages":    {Name: "messages", AnonymousCreate: true},
}

// LookupCollection returns the collection definition for a URL name.
func LookupCollection(name string) (Collection, bool) {
	c, ok := Collections[name]
	return c, ok
}
