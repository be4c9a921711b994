// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite has no notion of collections or documents, so every document is a
// row in one table:
//
//	collection — the collection path, e.g. "students" or "students/{id}/phones"
//	id         — the document identifier within that collection
//	data       — the document's fields, encoded as JSON
//
// Sub-collections are just rows with a longer collection path, so deleting
// a parent row leaves its phones behind, the same way Firestore does.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aanand-mishra/students-sync/internal/config"
	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/google/uuid"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.Path, creates the documents
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.Storage.Path)
}

// Open is New for callers that only have a file path.
func Open(path string) (*SQLite, error) {
	// _busy_timeout keeps concurrent writers from failing with
	// "database is locked" while another goroutine holds the write lock.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent; safe on every startup.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Add inserts a new document under a freshly generated UUID.
// Placeholders (?) keep the values out of the SQL text.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := storage.ValidatePath(collection); err != nil {
		return "", fmt.Errorf("Add: %w", err)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("Add: encode: %w", err)
	}

	id := uuid.NewString()

	_, err = s.Db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)",
		collection, id, string(encoded),
	)
	if err != nil {
		return "", fmt.Errorf("Add: exec: %w", err)
	}

	return id, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Set writes the whole document, inserting the row if it is missing and
// replacing its data otherwise.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := storage.ValidatePath(collection); err != nil {
		return fmt.Errorf("Set: %w", err)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("Set: encode: %w", err)
	}

	_, err = s.Db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`,
		collection, id, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("Set: exec: %w", err)
	}

	return nil
}

// Delete removes one row. Rows of its sub-collections are not touched.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	if err := storage.ValidatePath(collection); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	_, err := s.Db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("Delete: exec: %w", err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// List returns every document of the collection ordered by id.
// Always defer rows.Close() to release the database connection.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) List(ctx context.Context, collection string) ([]storage.Document, error) {
	if err := storage.ValidatePath(collection); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, data FROM documents WHERE collection = ? ORDER BY id",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("List: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty collection encodes as [] rather than null.
	docs := make([]storage.Document, 0)

	for rows.Next() {
		var (
			doc  storage.Document
			data string
		)
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, fmt.Errorf("List: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &doc.Data); err != nil {
			return nil, fmt.Errorf("List: decode %s: %w", doc.ID, err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows iteration: %w", err)
	}

	return docs, nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
