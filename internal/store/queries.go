// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/selfcaststudios/studio-cms/internal/model"
)

// Queries wraps a database handle with typed query methods. Every document
// query takes the owner id; callers are expected to have run the tenant
// resolver and access policy first.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance for the given database.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const userColumns = "id, email, password_hash, legacy_password, role, name, created_at, updated_at, last_login_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.LegacyPassword, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// GetUserByID returns the user with the given id.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user record.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, role, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Email, p.PasswordHash, p.Role, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           p.ID,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		Name:         p.Name,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	ID           string
	PasswordHash string
	UpdatedAt    time.Time
}

// UpdateUserPassword replaces a user's credential hash and clears any legacy
// plaintext credential in the same statement.
func (q *Queries) UpdateUserPassword(ctx context.Context, p UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, legacy_password = NULL, updated_at = ? WHERE id = ?",
		p.PasswordHash, p.UpdatedAt, p.ID,
	)
	return err
}

// UpdateUserLastLogin stamps the user's last login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE id = ?", at, id)
	return err
}

const documentColumns = "id, collection, owner_id, data, created_at, updated_at"

func scanDocument(row interface{ Scan(...any) error }) (model.Document, error) {
	var d model.Document
	var data string
	err := row.Scan(&d.ID, &d.Collection, &d.OwnerID, &data, &d.CreatedAt, &d.UpdatedAt)
	d.Data = json.RawMessage(data)
	return d, err
}

// GetDocument returns a single document within the given owner's tenant.
func (q *Queries) GetDocument(ctx context.Context, collection, id, ownerID string) (model.Document, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE collection = ? AND id = ? AND owner_id = ?",
		collection, id, ownerID,
	)
	return scanDocument(row)
}

// ListDocuments returns all of a tenant's documents in a collection,
// newest first.
func (q *Queries) ListDocuments(ctx context.Context, collection, ownerID string) ([]model.Document, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE collection = ? AND owner_id = ? ORDER BY created_at DESC",
		collection, ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// ListPublishedDocuments returns a tenant's published documents in a
// collection. Both published markers in use are honored: the string status
// field and the boolean flag.
func (q *Queries) ListPublishedDocuments(ctx context.Context, collection, ownerID string) ([]model.Document, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE collection = ? AND owner_id = ? "+
			"AND (json_extract(data, '$.status') = 'published' OR json_extract(data, '$.published') = 1) "+
			"ORDER BY created_at DESC",
		collection, ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// InsertDocument inserts a new content document.
func (q *Queries) InsertDocument(ctx context.Context, d model.Document) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO documents (id, collection, owner_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		d.ID, d.Collection, d.OwnerID, string(d.Data), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// UpdateDocument replaces a document's body within the given owner's tenant.
// Returns the number of rows affected; zero means not found in that tenant.
func (q *Queries) UpdateDocument(ctx context.Context, collection, id, ownerID string, data json.RawMessage, updatedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ? AND owner_id = ?",
		string(data), updatedAt, collection, id, ownerID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteDocument removes a document within the given owner's tenant.
// Returns the number of rows affected; zero means not found in that tenant.
func (q *Queries) DeleteDocument(ctx context.Context, collection, id, ownerID string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ? AND owner_id = ?",
		collection, id, ownerID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetSiteDocument returns the tenant's singleton site document.
func (q *Queries) GetSiteDocument(ctx context.Context, ownerID string) (model.Document, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT owner_id, data, created_at, updated_at FROM site_documents WHERE owner_id = ?",
		ownerID,
	)
	var d model.Document
	var data string
	if err := row.Scan(&d.OwnerID, &data, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return model.Document{}, err
	}
	d.ID = d.OwnerID
	d.Collection = "sites"
	d.Data = json.RawMessage(data)
	return d, nil
}

// UpsertSiteDocument creates the tenant's site document if missing, else
// replaces its body. A single atomic statement: two concurrent first writes
// for the same tenant still leave exactly one row.
func (q *Queries) UpsertSiteDocument(ctx context.Context, ownerID string, data json.RawMessage, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO site_documents (owner_id, data, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		ownerID, string(data), at, at,
	)
	return err
}

// CountSiteDocuments returns the number of site documents for a tenant.
// Always zero or one; exists for tests and health reporting.
func (q *Queries) CountSiteDocuments(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM site_documents WHERE owner_id = ?", ownerID,
	).Scan(&n)
	return n, err
}

// DeleteSiteDocument removes the tenant's site document.
func (q *Queries) DeleteSiteDocument(ctx context.Context, ownerID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, "DELETE FROM site_documents WHERE owner_id = ?", ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateEventParams holds the fields for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an audit log entry.
func (q *Queries) CreateEvent(ctx context.Context, p CreateEventParams) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO events (level, category, message, user_id, ip_address, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.Level, p.Category, p.Message, p.UserID, p.IPAddress, p.Metadata, p.CreatedAt,
	)
	return err
}

// DeleteOldEvents removes audit entries created before the cutoff.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
