package driving

import (
	"context"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// DocumentService performs revision-aware CRUD on documents.
type DocumentService interface {
	// Fetch returns the current revision of a document.
	// Returns domain.ErrNotFound if the document does not exist.
	Fetch(ctx context.Context, database, id string) (*domain.Document, error)

	// Put creates the document when it has no ID, otherwise updates it.
	// On success the document's ref is updated in place and returned.
	// A stale revision yields domain.ErrConflict.
	Put(ctx context.Context, database string, doc *domain.Document) (domain.DocumentRef, error)

	// Delete removes the document at ref. A ref without a revision fails
	// with domain.ErrPrecondition before any request is sent.
	Delete(ctx context.Context, database string, ref domain.DocumentRef) error

	// List returns the id and revision of every document in a database.
	List(ctx context.Context, database string) ([]domain.DocumentInfo, error)
}

// DatabaseService manages databases on the store.
type DatabaseService interface {
	// List returns all database names.
	List(ctx context.Context) ([]string, error)

	// Info returns database metadata, including the current update sequence.
	Info(ctx context.Context, database string) (*domain.DatabaseInfo, error)

	// Create creates a database.
	Create(ctx context.Context, database string) error

	// Delete deletes a database and stops watching it.
	Delete(ctx context.Context, database string) error

	// Compact starts compaction of a database.
	Compact(ctx context.Context, database string) error

	// Replicate replicates source into target, once or continuously.
	Replicate(ctx context.Context, source, target string, continuous bool) error
}
