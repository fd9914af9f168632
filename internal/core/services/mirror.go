package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

// Ensure CacheMirror implements the interface.
var _ driving.CacheMirror = (*CacheMirror)(nil)

// changeLogRetention is how many change records are kept per database.
const changeLogRetention = 1000

// CacheMirror keeps a local DocumentCache in step with both event channels
// and records each applied change in an optional ChangeLog.
type CacheMirror struct {
	cache driven.DocumentCache
	log   driven.ChangeLog
	now   func() time.Time
}

// NewCacheMirror creates a mirror. log may be nil.
func NewCacheMirror(cache driven.DocumentCache, log driven.ChangeLog) *CacheMirror {
	return &CacheMirror{
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// Attach subscribes the mirror to both channels of bus and returns a
// function that unsubscribes it.
func (m *CacheMirror) Attach(bus driving.EventBus) func() {
	localID := bus.Local().Subscribe(&mirrorListener{mirror: m, origin: domain.OriginLocal})
	remoteID := bus.Remote().Subscribe(&mirrorListener{mirror: m, origin: domain.OriginRemote})
	return func() {
		bus.Local().Unsubscribe(localID)
		bus.Remote().Unsubscribe(remoteID)
	}
}

// Seed loads every current document of a database into the cache. Used
// when a watch starts, since the watcher only reports later changes.
func (m *CacheMirror) Seed(ctx context.Context, database string, docs driving.DocumentService) (int, error) {
	infos, err := docs.List(ctx, database)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", database, err)
	}

	seeded := 0
	for _, info := range infos {
		doc, err := docs.Fetch(ctx, database, info.ID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return seeded, fmt.Errorf("seed %s/%s: %w", database, info.ID, err)
		}
		if err := m.cache.Put(ctx, database, doc); err != nil {
			return seeded, fmt.Errorf("seed %s/%s: %w", database, info.ID, err)
		}
		seeded++
	}
	logger.Info("seeded %d documents from %s", seeded, database)
	return seeded, nil
}

// apply writes a change to the cache and the log.
func (m *CacheMirror) apply(origin domain.ChangeOrigin, change domain.ClassifiedChange) {
	ctx := context.Background()

	var err error
	switch change.Kind {
	case domain.ChangeCreated, domain.ChangeUpdated:
		err = m.cache.Put(ctx, change.Database, change.Document)
	case domain.ChangeDeleted:
		err = m.cache.Delete(ctx, change.Database, change.DocumentID)
	}
	if err != nil {
		logger.Error("cache %s %s/%s: %v", change.Kind, change.Database, change.DocumentID, err)
		return
	}

	if m.log == nil {
		return
	}
	record := domain.ChangeRecord{
		Origin:     origin,
		Kind:       change.Kind,
		Database:   change.Database,
		DocumentID: change.DocumentID,
		RecordedAt: m.now(),
	}
	if change.Document != nil {
		record.Revision = change.Document.Revision()
	}
	if err := m.log.Append(ctx, record); err != nil {
		logger.Error("change log %s/%s: %v", change.Database, change.DocumentID, err)
		return
	}
	if err := m.log.Prune(ctx, changeLogRetention); err != nil {
		logger.Warn("prune change log: %v", err)
	}
}

// mirrorListener adapts one channel's callbacks onto the mirror.
type mirrorListener struct {
	mirror *CacheMirror
	origin domain.ChangeOrigin
}

func (l *mirrorListener) DocumentCreated(database string, doc *domain.Document) {
	l.mirror.apply(l.origin, domain.Created(database, doc))
}

func (l *mirrorListener) DocumentUpdated(database string, doc *domain.Document) {
	l.mirror.apply(l.origin, domain.Updated(database, doc))
}

func (l *mirrorListener) DocumentDeleted(database, id string) {
	l.mirror.apply(l.origin, domain.Deleted(database, id))
}

// DatabaseCreated is a no-op; the cache fills as changes arrive.
func (l *mirrorListener) DatabaseCreated(string) {}

// DatabaseDeleted drops every cached document of the database.
func (l *mirrorListener) DatabaseDeleted(database string) {
	if err := l.mirror.cache.Purge(context.Background(), database); err != nil {
		logger.Error("purge cache for %s: %v", database, err)
	}
}

var (
	_ driving.ChangeListener   = (*mirrorListener)(nil)
	_ driving.DatabaseListener = (*mirrorListener)(nil)
)
