package driving

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// ChangeListener receives document change notifications.
// Calls are synchronous; a slow listener delays the notifier.
type ChangeListener interface {
	DocumentCreated(database string, doc *domain.Document)
	DocumentUpdated(database string, doc *domain.Document)
	DocumentDeleted(database, id string)
}

// DatabaseListener is optionally implemented by a ChangeListener that also
// wants database lifecycle notifications from the local channel.
type DatabaseListener interface {
	DatabaseCreated(database string)
	DatabaseDeleted(database string)
}

// ChangeChannel is one stream of notifications.
type ChangeChannel interface {
	// Subscribe registers a listener and returns its handle.
	Subscribe(l ChangeListener) uuid.UUID

	// Unsubscribe removes a listener. Unknown handles are ignored.
	Unsubscribe(id uuid.UUID)
}

// EventBus separates changes this process made from changes observed
// on the remote change feed.
type EventBus interface {
	// Local carries write completions from DocumentService and DatabaseService.
	Local() ChangeChannel

	// Remote carries changes reconciled by the watcher.
	Remote() ChangeChannel
}

// ListenerFuncs adapts plain functions to ChangeListener. Nil funcs are skipped.
type ListenerFuncs struct {
	Created func(database string, doc *domain.Document)
	Updated func(database string, doc *domain.Document)
	Deleted func(database, id string)
}

// DocumentCreated implements ChangeListener.
func (f ListenerFuncs) DocumentCreated(database string, doc *domain.Document) {
	if f.Created != nil {
		f.Created(database, doc)
	}
}

// DocumentUpdated implements ChangeListener.
func (f ListenerFuncs) DocumentUpdated(database string, doc *domain.Document) {
	if f.Updated != nil {
		f.Updated(database, doc)
	}
}

// DocumentDeleted implements ChangeListener.
func (f ListenerFuncs) DocumentDeleted(database, id string) {
	if f.Deleted != nil {
		f.Deleted(database, id)
	}
}
