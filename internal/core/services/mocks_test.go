package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
)

// --- Mock transport ---

type routeHandler func(req driven.Request) (*driven.Response, error)

// mockTransport implements driven.Transport with per-route handlers.
// Unrouted requests answer 404.
type mockTransport struct {
	mu       sync.Mutex
	routes   map[string]routeHandler
	requests []driven.Request
}

func newMockTransport() *mockTransport {
	return &mockTransport{routes: make(map[string]routeHandler)}
}

func (m *mockTransport) handle(method, path string, h routeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method+" "+path] = h
}

func (m *mockTransport) respond(method, path string, status int, body string) {
	m.handle(method, path, func(driven.Request) (*driven.Response, error) {
		return jsonResponse(status, body), nil
	})
}

func (m *mockTransport) fail(method, path string, err error) {
	m.handle(method, path, func(driven.Request) (*driven.Response, error) {
		return nil, err
	})
}

func (m *mockTransport) Send(_ context.Context, req driven.Request) (*driven.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	h, ok := m.routes[req.Method+" "+req.Path]
	m.mu.Unlock()

	if !ok {
		return jsonResponse(http.StatusNotFound, `{"error":"not_found","reason":"missing"}`), nil
	}
	return h(req)
}

func (m *mockTransport) BaseURL() string { return "http://localhost:5984" }

func (m *mockTransport) recorded() []driven.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]driven.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *mockTransport) count(method, path string) int {
	n := 0
	for _, req := range m.recorded() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

func jsonResponse(status int, body string) *driven.Response {
	return &driven.Response{
		Category:   driven.CategoryFor(status),
		StatusCode: status,
		Reason:     http.StatusText(status),
		Body:       []byte(body),
	}
}

// --- Recording listener ---

type recordedEvent struct {
	kind     domain.ChangeKind
	database string
	id       string
	revision string
	doc      *domain.Document
}

// recordingListener implements driving.ChangeListener and
// driving.DatabaseListener.
type recordingListener struct {
	mu        sync.Mutex
	events    []recordedEvent
	created   []string
	deleted   []string
	onPublish func()
}

func (r *recordingListener) record(e recordedEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	hook := r.onPublish
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (r *recordingListener) DocumentCreated(database string, doc *domain.Document) {
	r.record(recordedEvent{kind: domain.ChangeCreated, database: database, id: doc.ID(), revision: doc.Revision(), doc: doc})
}

func (r *recordingListener) DocumentUpdated(database string, doc *domain.Document) {
	r.record(recordedEvent{kind: domain.ChangeUpdated, database: database, id: doc.ID(), revision: doc.Revision(), doc: doc})
}

func (r *recordingListener) DocumentDeleted(database, id string) {
	r.record(recordedEvent{kind: domain.ChangeDeleted, database: database, id: id})
}

func (r *recordingListener) DatabaseCreated(database string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, database)
}

func (r *recordingListener) DatabaseDeleted(database string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, database)
}

func (r *recordingListener) recorded() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

var (
	_ driven.Transport         = (*mockTransport)(nil)
	_ driving.ChangeListener   = (*recordingListener)(nil)
	_ driving.DatabaseListener = (*recordingListener)(nil)
)
