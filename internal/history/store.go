// Copyright 2025 Copyforge Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history keeps a capped per-tenant list of past generations.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded generation.
type Entry struct {
	ID           int64     `json:"id"`
	Tenant       string    `json:"tenant"`
	ProductID    string    `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	Vibe         string    `json:"vibe"`
	Format       string    `json:"format"`
	Description  string    `json:"description"`
	Socials      string    `json:"socials,omitempty"` // JSON blob or empty
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a sqlite-backed history list, capped per tenant so the
// table cannot grow without bound.
type Store struct {
	db  *sql.DB
	cap int
}

// NewStore opens (or creates) the history database at dbPath. cap is
// the maximum number of retained entries per tenant.
func NewStore(dbPath string, cap int) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, cap: cap}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the history table if it doesn't exist.
func (s *Store) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant TEXT NOT NULL,
			product_id TEXT,
			product_title TEXT,
			vibe TEXT,
			format TEXT,
			description TEXT,
			socials TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_history_tenant ON history(tenant, id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Add records a generation and prunes the tenant's oldest entries
// past the cap.
func (s *Store) Add(entry Entry) (int64, error) {
	query := `
		INSERT INTO history (tenant, product_id, product_title, vibe, format, description, socials)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		entry.Tenant, entry.ProductID, entry.ProductTitle,
		entry.Vibe, entry.Format, entry.Description, entry.Socials)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	if err := s.prune(entry.Tenant); err != nil {
		return id, fmt.Errorf("failed to prune history: %w", err)
	}

	return id, nil
}

// prune deletes the tenant's entries beyond the cap, oldest first.
func (s *Store) prune(tenant string) error {
	query := `
		DELETE FROM history
		WHERE tenant = ? AND id NOT IN (
			SELECT id FROM history WHERE tenant = ? ORDER BY id DESC LIMIT ?
		)
	`

	_, err := s.db.Exec(query, tenant, tenant, s.cap)
	return err
}

// List returns the tenant's entries, newest first, up to limit (or
// all retained entries when limit <= 0).
func (s *Store) List(tenant string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.cap
	}

	query := `
		SELECT id, tenant, product_id, product_title, vibe, format, description, socials, created_at
		FROM history
		WHERE tenant = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Tenant, &e.ProductID, &e.ProductTitle,
			&e.Vibe, &e.Format, &e.Description, &e.Socials, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Get returns a single entry by id.
func (s *Store) Get(id int64) (Entry, error) {
	query := `
		SELECT id, tenant, product_id, product_title, vibe, format, description, socials, created_at
		FROM history
		WHERE id = ?
	`

	var e Entry
	err := s.db.QueryRow(query, id).Scan(&e.ID, &e.Tenant, &e.ProductID, &e.ProductTitle,
		&e.Vibe, &e.Format, &e.Description, &e.Socials, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get history entry: %w", err)
	}

	return e, nil
}

// Delete removes a single entry by id.
func (s *Store) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping verifies the database connection, for health checks.
func (s *Store) Ping() error {
	return s.db.Ping()
}
