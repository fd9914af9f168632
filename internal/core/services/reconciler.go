package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

// documentFetcher is the part of DocumentStore the reconciler needs.
type documentFetcher interface {
	Fetch(ctx context.Context, database, id string) (*domain.Document, error)
}

// ChangeReconciler turns raw change entries into classified changes by
// fetching each document's current state.
type ChangeReconciler struct {
	fetcher documentFetcher
}

// NewChangeReconciler creates a reconciler backed by a document fetcher.
func NewChangeReconciler(fetcher documentFetcher) *ChangeReconciler {
	return &ChangeReconciler{fetcher: fetcher}
}

// Reconcile classifies one entry.
//
//   - document missing: Deleted
//   - revision generation 1: Created
//   - any other generation: Updated
//
// It returns false when the entry cannot be classified: the fetch failed,
// or the document came back without a usable revision. Such entries are
// dropped; the caller's cursor still moves past them.
func (r *ChangeReconciler) Reconcile(
	ctx context.Context,
	database string,
	entry domain.RawChangeEntry,
) (domain.ClassifiedChange, bool) {
	doc, err := r.fetcher.Fetch(ctx, database, entry.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Deleted(database, entry.DocumentID), true
		}
		logger.Error("dropping change %d for %s/%s: %v", entry.Sequence, database, entry.DocumentID, err)
		return domain.ClassifiedChange{}, false
	}

	gen, ok := doc.Ref().Generation()
	if !ok {
		logger.Warn("dropping change %d for %s/%s: no revision", entry.Sequence, database, entry.DocumentID)
		return domain.ClassifiedChange{}, false
	}
	if doc.ID() == "" {
		doc.SetRef(domain.DocumentRef{ID: entry.DocumentID, Revision: doc.Revision()})
	}

	if gen == 1 {
		return domain.Created(database, doc), true
	}
	return domain.Updated(database, doc), true
}

// ReconcileAll classifies entries in order. Each entry is independent:
// one that cannot be classified does not affect the rest.
func (r *ChangeReconciler) ReconcileAll(
	ctx context.Context,
	database string,
	entries []domain.RawChangeEntry,
) []domain.ClassifiedChange {
	changes := make([]domain.ClassifiedChange, 0, len(entries))
	for _, entry := range entries {
		if change, ok := r.Reconcile(ctx, database, entry); ok {
			changes = append(changes, change)
		}
	}
	return changes
}
