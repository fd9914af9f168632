package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
)

// documentCache implements driven.DocumentCache.
type documentCache struct {
	store *Store
}

var _ driven.DocumentCache = (*documentCache)(nil)

// Put stores or replaces a document.
func (c *documentCache) Put(ctx context.Context, database string, doc *domain.Document) error {
	if doc == nil || doc.ID() == "" {
		return domain.ErrInvalidInput
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO documents (db_name, id, revision, body, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(db_name, id) DO UPDATE SET
			revision = excluded.revision,
			body = excluded.body,
			cached_at = excluded.cached_at
	`, database, doc.ID(), doc.Revision(), string(body), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("caching document: %w", err)
	}
	return nil
}

// Get returns a cached document.
func (c *documentCache) Get(ctx context.Context, database, id string) (*domain.Document, error) {
	var body string
	err := c.store.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE db_name = ? AND id = ?", database, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cached document %s/%s: %w", database, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying cached document: %w", err)
	}
	return parseCached(body)
}

// Delete removes a cached document.
func (c *documentCache) Delete(ctx context.Context, database, id string) error {
	_, err := c.store.db.ExecContext(ctx, "DELETE FROM documents WHERE db_name = ? AND id = ?", database, id)
	if err != nil {
		return fmt.Errorf("deleting cached document: %w", err)
	}
	return nil
}

// List returns the cached documents of a database ordered by ID.
func (c *documentCache) List(ctx context.Context, database string) ([]*domain.Document, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT body FROM documents WHERE db_name = ? ORDER BY id", database)
	if err != nil {
		return nil, fmt.Errorf("querying cached documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning cached document: %w", err)
		}
		doc, err := parseCached(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cached documents: %w", err)
	}
	return docs, nil
}

// Purge removes every cached document of a database.
func (c *documentCache) Purge(ctx context.Context, database string) error {
	_, err := c.store.db.ExecContext(ctx, "DELETE FROM documents WHERE db_name = ?", database)
	if err != nil {
		return fmt.Errorf("purging cached documents: %w", err)
	}
	return nil
}

func parseCached(body string) (*domain.Document, error) {
	doc, err := domain.ParseDocument([]byte(body))
	if err != nil {
		return nil, &domain.ParseError{What: "cached document", Err: err}
	}
	return doc, nil
}
