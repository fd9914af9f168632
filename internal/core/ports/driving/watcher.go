package driving

import (
	"context"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// WatchService polls database change feeds and publishes reconciled
// changes on the EventBus remote channel.
type WatchService interface {
	// Watch starts polling a database. Watching an already-watched
	// database logs a warning and returns nil.
	Watch(ctx context.Context, database string) error

	// Unwatch stops polling a database. Unknown databases are a no-op.
	Unwatch(database string)

	// Watching returns the names of watched databases, sorted.
	Watching() []string

	// State returns a snapshot of a database's watch state.
	// Returns domain.ErrNotWatching if the database is not watched.
	State(database string) (domain.ChangeWatchState, error)

	// Close stops every watch and waits for in-flight polls to finish.
	Close() error
}
