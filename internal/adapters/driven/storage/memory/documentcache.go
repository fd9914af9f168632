package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
)

// Ensure DocumentCache implements the interface.
var _ driven.DocumentCache = (*DocumentCache)(nil)

// DocumentCache is an in-memory implementation of driven.DocumentCache.
type DocumentCache struct {
	mu        sync.RWMutex
	databases map[string]map[string]*domain.Document
}

// NewDocumentCache creates a new in-memory document cache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{
		databases: make(map[string]map[string]*domain.Document),
	}
}

// Put stores a copy of a document.
func (c *DocumentCache) Put(_ context.Context, database string, doc *domain.Document) error {
	if doc == nil || doc.ID() == "" {
		return domain.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	docs, ok := c.databases[database]
	if !ok {
		docs = make(map[string]*domain.Document)
		c.databases[database] = docs
	}
	docs[doc.ID()] = doc.Clone()
	return nil
}

// Get returns a copy of a cached document.
func (c *DocumentCache) Get(_ context.Context, database, id string) (*domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.databases[database][id]
	if !ok {
		return nil, fmt.Errorf("cached document %s/%s: %w", database, id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

// Delete removes a cached document.
func (c *DocumentCache) Delete(_ context.Context, database, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.databases[database], id)
	return nil
}

// List returns copies of a database's documents ordered by ID.
func (c *DocumentCache) List(_ context.Context, database string) ([]*domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]*domain.Document, 0, len(c.databases[database]))
	for _, doc := range c.databases[database] {
		docs = append(docs, doc.Clone())
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID() < docs[j].ID()
	})
	return docs, nil
}

// Purge removes every cached document of a database.
func (c *DocumentCache) Purge(_ context.Context, database string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.databases, database)
	return nil
}
