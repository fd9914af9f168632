package mcp

import (
	"context"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	document *domain.Document
	ref      domain.DocumentRef
	infos    []domain.DocumentInfo
	err      error

	putDatabase string
	putDoc      *domain.Document
	deleted     domain.DocumentRef
}

func (m *mockDocumentService) Fetch(_ context.Context, _, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Put(_ context.Context, database string, doc *domain.Document) (domain.DocumentRef, error) {
	m.putDatabase = database
	m.putDoc = doc
	return m.ref, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string, ref domain.DocumentRef) error {
	m.deleted = ref
	return m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.DocumentInfo, error) {
	return m.infos, m.err
}

// mockDatabaseService is a mock implementation of driving.DatabaseService.
type mockDatabaseService struct {
	names []string
	info  *domain.DatabaseInfo
	err   error
}

func (m *mockDatabaseService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockDatabaseService) Info(_ context.Context, _ string) (*domain.DatabaseInfo, error) {
	return m.info, m.err
}

func (m *mockDatabaseService) Create(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDatabaseService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDatabaseService) Compact(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDatabaseService) Replicate(_ context.Context, _, _ string, _ bool) error {
	return m.err
}

// mockWatchService is a mock implementation of driving.WatchService.
type mockWatchService struct {
	states map[string]domain.ChangeWatchState
}

func (m *mockWatchService) Watch(_ context.Context, _ string) error { return nil }

func (m *mockWatchService) Unwatch(_ string) {}

func (m *mockWatchService) Watching() []string { return nil }

func (m *mockWatchService) State(database string) (domain.ChangeWatchState, error) {
	state, ok := m.states[database]
	if !ok {
		return domain.ChangeWatchState{}, domain.ErrNotWatching
	}
	return state, nil
}

func (m *mockWatchService) Close() error { return nil }
