package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/core/services"
)

// mockDocumentService keeps documents in memory and mints revisions the
// way the store does.
type mockDocumentService struct {
	mu      sync.Mutex
	docs    map[string]*domain.Document
	err     error
	deleted []domain.DocumentRef
	nextID  int
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{docs: make(map[string]*domain.Document)}
}

func (m *mockDocumentService) key(database, id string) string {
	return database + "/" + id
}

func (m *mockDocumentService) add(t *testing.T, database, body string) {
	t.Helper()
	doc, err := domain.ParseDocument([]byte(body))
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	m.docs[m.key(database, doc.ID())] = doc
}

func (m *mockDocumentService) Fetch(_ context.Context, database, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[m.key(database, id)]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (m *mockDocumentService) Put(_ context.Context, database string, doc *domain.Document) (domain.DocumentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.DocumentRef{}, m.err
	}
	ref := doc.Ref()
	if ref.ID == "" {
		m.nextID++
		ref.ID = fmt.Sprintf("generated-%d", m.nextID)
	}
	gen := 0
	if existing, ok := m.docs[m.key(database, ref.ID)]; ok {
		if existing.Revision() != ref.Revision {
			return domain.DocumentRef{}, fmt.Errorf("put %s: %w", ref.ID, domain.ErrConflict)
		}
		gen, _ = existing.Ref().Generation()
	}
	ref.Revision = fmt.Sprintf("%d-mock", gen+1)
	doc.SetRef(ref)
	m.docs[m.key(database, ref.ID)] = doc.Clone()
	return ref, nil
}

func (m *mockDocumentService) Delete(_ context.Context, database string, ref domain.DocumentRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref.Revision == "" {
		return fmt.Errorf("delete %s: %w: revision required", ref.ID, domain.ErrPrecondition)
	}
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, ref)
	delete(m.docs, m.key(database, ref.ID))
	return nil
}

func (m *mockDocumentService) List(_ context.Context, database string) ([]domain.DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var infos []domain.DocumentInfo
	for key, doc := range m.docs {
		if strings.HasPrefix(key, database+"/") {
			infos = append(infos, domain.DocumentInfo{ID: doc.ID(), Revision: doc.Revision()})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// mockDatabaseService records calls against a fixed set of databases.
type mockDatabaseService struct {
	names      []string
	info       *domain.DatabaseInfo
	err        error
	created    []string
	deleted    []string
	compacted  []string
	replicated []string
}

func (m *mockDatabaseService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockDatabaseService) Info(_ context.Context, _ string) (*domain.DatabaseInfo, error) {
	return m.info, m.err
}

func (m *mockDatabaseService) Create(_ context.Context, database string) error {
	m.created = append(m.created, database)
	return m.err
}

func (m *mockDatabaseService) Delete(_ context.Context, database string) error {
	m.deleted = append(m.deleted, database)
	return m.err
}

func (m *mockDatabaseService) Compact(_ context.Context, database string) error {
	m.compacted = append(m.compacted, database)
	return m.err
}

func (m *mockDatabaseService) Replicate(_ context.Context, source, target string, continuous bool) error {
	m.replicated = append(m.replicated, fmt.Sprintf("%s->%s continuous=%t", source, target, continuous))
	return m.err
}

// mockWatchService tracks the watched set.
type mockWatchService struct {
	mu       sync.Mutex
	watching map[string]bool
	err      error
	closed   bool
}

func newMockWatchService() *mockWatchService {
	return &mockWatchService{watching: make(map[string]bool)}
}

func (m *mockWatchService) Watch(_ context.Context, database string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.watching[database] = true
	return nil
}

func (m *mockWatchService) Unwatch(database string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watching, database)
}

func (m *mockWatchService) Watching() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.watching))
	for name := range m.watching {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *mockWatchService) State(database string) (domain.ChangeWatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.watching[database] {
		return domain.ChangeWatchState{}, domain.ErrNotWatching
	}
	return domain.ChangeWatchState{Database: database}, nil
}

func (m *mockWatchService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockMirror records Attach and Seed calls.
type mockMirror struct {
	attached bool
	detached bool
	seeded   []string
}

func (m *mockMirror) Attach(_ driving.EventBus) func() {
	m.attached = true
	return func() { m.detached = true }
}

func (m *mockMirror) Seed(_ context.Context, database string, _ driving.DocumentService) (int, error) {
	m.seeded = append(m.seeded, database)
	return 0, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	docs    *mockDocumentService
	dbs     *mockDatabaseService
	watcher *mockWatchService
	bus     *services.EventBus
}

// setupTestServices installs mocks in the package-level service vars and
// returns a func restoring the previous values.
func setupTestServices() (*testServices, func()) {
	oldDocs, oldDBs, oldWatch, oldBus := documentService, databaseService, watchService, eventBus
	oldSettings, oldConnector, oldConnected := settingsService, connector, connected
	oldOpener, oldFollower := cacheOpener, configFollower

	ts := &testServices{
		docs: newMockDocumentService(),
		dbs: &mockDatabaseService{
			names: []string{"contacts", "notes"},
			info:  &domain.DatabaseInfo{Name: "contacts", DocCount: 2, UpdateSequence: 9, DiskSize: 4096},
		},
		watcher: newMockWatchService(),
		bus:     services.NewEventBus(),
	}
	documentService = ts.docs
	databaseService = ts.dbs
	watchService = ts.watcher
	eventBus = ts.bus
	settingsService = nil
	connector = nil
	connected = false

	return ts, func() {
		documentService, databaseService, watchService, eventBus = oldDocs, oldDBs, oldWatch, oldBus
		settingsService, connector, connected = oldSettings, oldConnector, oldConnected
		cacheOpener, configFollower = oldOpener, oldFollower
	}
}

// resetFlags clears flag-bound package vars between executions.
func resetFlags() {
	putID, putUUID = "", false
	deleteRev, deleteLast = "", false
	prettyJSON = false
	replicateContinuous = false
	watchFollowConfig, watchCache, watchCachePath, watchJSON = false, false, "", false
	versionShort = false
}

// executeCommand runs rootCmd with args and returns combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandWith(t, context.Background(), nil, args...)
}

func executeCommandWith(t *testing.T, ctx context.Context, in io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if in == nil {
		in = strings.NewReader("")
	}
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}
