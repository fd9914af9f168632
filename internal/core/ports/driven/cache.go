package driven

import (
	"context"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// DocumentCache is a local mirror of remote documents, keyed by database and ID.
type DocumentCache interface {
	// Put stores or replaces a document. The cache keeps its own copy.
	Put(ctx context.Context, database string, doc *domain.Document) error

	// Get returns a cached document, or domain.ErrNotFound.
	Get(ctx context.Context, database, id string) (*domain.Document, error)

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, database, id string) error

	// List returns the cached documents of a database ordered by ID.
	List(ctx context.Context, database string) ([]*domain.Document, error)

	// Purge removes every cached document of a database.
	Purge(ctx context.Context, database string) error
}

// ChangeLog records applied changes for later inspection.
type ChangeLog interface {
	// Append records a change.
	Append(ctx context.Context, record domain.ChangeRecord) error

	// Recent returns up to limit records for a database, newest first.
	// An empty database returns records across all databases.
	Recent(ctx context.Context, database string, limit int) ([]domain.ChangeRecord, error)

	// Prune keeps the newest keep records per database.
	Prune(ctx context.Context, keep int) error
}
