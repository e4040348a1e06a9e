// Package docstore persists warden's coordination documents as versioned
// JSON blobs. Every mutation rewrites the full document body; the version
// stamp is an optimistic-concurrency token so concurrent writers detect
// conflicts instead of silently losing updates.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Document is one stored document. Version 0 means the document does not
// exist yet; a successful write of version 0 creates it at version 1.
type Document struct {
	Name    string
	Body    []byte
	Version int64
}

// Store is the document store seam. Load never fails on a missing
// document: it returns an empty body at version 0.
type Store interface {
	Load(ctx context.Context, name string) (Document, error)
	// CompareAndSwap writes body as the new content of name if and only
	// if the stored version still equals version. Returns false (and no
	// error) when another writer got there first.
	CompareAndSwap(ctx context.Context, name string, version int64, body []byte) (bool, error)
}

// SQLite implements Store on a shared *sql.DB.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an already-opened database. The caller owns db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Load fetches a document by name.
func (s *SQLite) Load(ctx context.Context, name string) (Document, error) {
	doc := Document{Name: name}
	row := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM documents WHERE name = ?`, name)
	var body string
	err := row.Scan(&body, &doc.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("load document %s: %w", name, err)
	}
	doc.Body = []byte(body)
	return doc, nil
}

// CompareAndSwap performs the versioned write. Creation (version 0) races
// are resolved by the primary-key constraint; updates by the version
// predicate. Either way a lost race reports false.
func (s *SQLite) CompareAndSwap(ctx context.Context, name string, version int64, body []byte) (bool, error) {
	if version == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO documents (name, body, version) VALUES (?, ?, 1)
			 ON CONFLICT(name) DO NOTHING`, name, string(body))
		if err != nil {
			return false, fmt.Errorf("create document %s: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("create document %s: %w", name, err)
		}
		return n == 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET body = ?, version = version + 1, updated_at = datetime('now')
		 WHERE name = ? AND version = ?`, string(body), name, version)
	if err != nil {
		return false, fmt.Errorf("update document %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update document %s: %w", name, err)
	}
	return n == 1, nil
}

// Open opens (or creates) the warden state database at path with
// production-safe defaults: WAL journal mode and a 5-second busy timeout.
// It pings the connection and applies schema before returning.
func Open(path, schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema to %s: %w", path, err)
	}

	return db, nil
}
