package driving

import "context"

// CacheMirror keeps a local document cache in step with an EventBus.
type CacheMirror interface {
	// Attach subscribes to both channels of bus. The returned func detaches.
	Attach(bus EventBus) func()

	// Seed loads the current documents of a database into the cache and
	// returns how many were stored.
	Seed(ctx context.Context, database string, docs DocumentService) (int, error)
}
