package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
)

// Ensure EventBus implements the interface.
var _ driving.EventBus = (*EventBus)(nil)

// EventBus fans changes out to listeners on two independent channels:
// writes this process completed, and changes seen on the remote feed.
type EventBus struct {
	local  *changeChannel
	remote *changeChannel
}

// NewEventBus creates an event bus with no listeners.
func NewEventBus() *EventBus {
	return &EventBus{
		local:  &changeChannel{},
		remote: &changeChannel{},
	}
}

// Local returns the channel for locally initiated writes.
func (b *EventBus) Local() driving.ChangeChannel {
	return b.local
}

// Remote returns the channel for changes observed by watchers.
func (b *EventBus) Remote() driving.ChangeChannel {
	return b.remote
}

// PublishLocal delivers a locally initiated change.
func (b *EventBus) PublishLocal(change domain.ClassifiedChange) {
	b.local.publish(change)
}

// PublishRemote delivers a change observed on the remote feed.
func (b *EventBus) PublishRemote(change domain.ClassifiedChange) {
	b.remote.publish(change)
}

// PublishDatabaseCreated notifies local DatabaseListeners.
func (b *EventBus) PublishDatabaseCreated(database string) {
	for _, l := range b.local.snapshot() {
		if dl, ok := l.(driving.DatabaseListener); ok {
			dl.DatabaseCreated(database)
		}
	}
}

// PublishDatabaseDeleted notifies local DatabaseListeners.
func (b *EventBus) PublishDatabaseDeleted(database string) {
	for _, l := range b.local.snapshot() {
		if dl, ok := l.(driving.DatabaseListener); ok {
			dl.DatabaseDeleted(database)
		}
	}
}

type subscription struct {
	id       uuid.UUID
	listener driving.ChangeListener
}

// changeChannel delivers synchronously, in subscription order.
type changeChannel struct {
	mu   sync.RWMutex
	subs []subscription
}

// Subscribe registers a listener and returns its handle.
func (c *changeChannel) Subscribe(l driving.ChangeListener) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New()
	c.subs = append(c.subs, subscription{id: id, listener: l})
	return id
}

// Unsubscribe removes a listener by handle.
func (c *changeChannel) Unsubscribe(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.subs {
		if c.subs[i].id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// snapshot copies the listener list so delivery runs without the lock,
// letting listeners subscribe or unsubscribe from inside a callback.
func (c *changeChannel) snapshot() []driving.ChangeListener {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]driving.ChangeListener, len(c.subs))
	for i := range c.subs {
		out[i] = c.subs[i].listener
	}
	return out
}

func (c *changeChannel) publish(change domain.ClassifiedChange) {
	for _, l := range c.snapshot() {
		switch change.Kind {
		case domain.ChangeCreated:
			l.DocumentCreated(change.Database, change.Document.Clone())
		case domain.ChangeUpdated:
			l.DocumentUpdated(change.Database, change.Document.Clone())
		case domain.ChangeDeleted:
			l.DocumentDeleted(change.Database, change.DocumentID)
		}
	}
}
