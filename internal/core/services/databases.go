package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
)

// Ensure DatabaseService implements the interface.
var _ driving.DatabaseService = (*DatabaseService)(nil)

// unwatcher is the part of the watcher DatabaseService needs.
type unwatcher interface {
	Unwatch(database string)
}

// DatabaseService manages databases on the remote store.
type DatabaseService struct {
	transport driven.Transport
	bus       *EventBus

	mu      sync.RWMutex
	watcher unwatcher
}

// NewDatabaseService creates a database service. bus may be nil.
func NewDatabaseService(transport driven.Transport, bus *EventBus) *DatabaseService {
	return &DatabaseService{
		transport: transport,
		bus:       bus,
	}
}

// AttachWatcher makes Delete stop any watch on the deleted database.
// The watcher itself reads database info through this service, so it
// is attached after construction.
func (s *DatabaseService) AttachWatcher(w unwatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcher = w
}

// List returns all database names.
func (s *DatabaseService) List(ctx context.Context) ([]string, error) {
	req := driven.Request{Method: http.MethodGet, Path: "/_all_dbs"}
	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return nil, err
	}
	if resp.Category != driven.StatusSuccess {
		return nil, statusError(req, resp)
	}

	var names []string
	if err := decode(resp, "database list", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// databaseInfoResponse is the body of GET /{db}/.
type databaseInfoResponse struct {
	DBName         string          `json:"db_name"`
	DocCount       int64           `json:"doc_count"`
	DocDelCount    int64           `json:"doc_del_count"`
	UpdateSeq      json.RawMessage `json:"update_seq"`
	CompactRunning bool            `json:"compact_running"`
	DiskSize       int64           `json:"disk_size"`
}

// Info returns database metadata, including the current update sequence.
func (s *DatabaseService) Info(ctx context.Context, database string) (*domain.DatabaseInfo, error) {
	if err := requireName("database", database); err != nil {
		return nil, err
	}

	req := driven.Request{Method: http.MethodGet, Path: databasePath(database)}
	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return nil, err
	}
	if resp.Category != driven.StatusSuccess {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("database %s: %w", database, domain.ErrNotFound)
		}
		return nil, statusError(req, resp)
	}

	var body databaseInfoResponse
	if err := decode(resp, "database info", &body); err != nil {
		return nil, err
	}

	var seq int64
	if len(body.UpdateSeq) > 0 {
		seq, err = parseSequence(body.UpdateSeq)
		if err != nil {
			return nil, &domain.ParseError{What: "database info update_seq", Err: err}
		}
	}

	name := body.DBName
	if name == "" {
		name = database
	}
	return &domain.DatabaseInfo{
		Name:           name,
		DocCount:       body.DocCount,
		DocDelCount:    body.DocDelCount,
		UpdateSequence: seq,
		CompactRunning: body.CompactRunning,
		DiskSize:       body.DiskSize,
	}, nil
}

// Create creates a database and announces it on the local channel.
func (s *DatabaseService) Create(ctx context.Context, database string) error {
	if err := s.write(ctx, http.MethodPut, databasePath(database), database, nil); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.PublishDatabaseCreated(database)
	}
	return nil
}

// Delete deletes a database, stops watching it and announces it on the
// local channel.
func (s *DatabaseService) Delete(ctx context.Context, database string) error {
	if err := s.write(ctx, http.MethodDelete, databasePath(database), database, nil); err != nil {
		return err
	}

	s.mu.RLock()
	w := s.watcher
	s.mu.RUnlock()
	if w != nil {
		w.Unwatch(database)
	}

	if s.bus != nil {
		s.bus.PublishDatabaseDeleted(database)
	}
	return nil
}

// Compact asks the store to compact a database.
func (s *DatabaseService) Compact(ctx context.Context, database string) error {
	return s.write(ctx, http.MethodPost, databasePath(database)+"_compact", database, []byte("{}"))
}

// replicateRequest is the body of POST /_replicate.
type replicateRequest struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Continuous bool   `json:"continuous,omitempty"`
}

// Replicate replicates source into target, once or continuously.
func (s *DatabaseService) Replicate(ctx context.Context, source, target string, continuous bool) error {
	if err := requireName("source database", source); err != nil {
		return err
	}
	if err := requireName("target database", target); err != nil {
		return err
	}

	body, err := json.Marshal(replicateRequest{Source: source, Target: target, Continuous: continuous})
	if err != nil {
		return fmt.Errorf("encode replicate request: %w", err)
	}

	req := driven.Request{Method: http.MethodPost, Path: "/_replicate", Body: body}
	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return err
	}
	if resp.Category != driven.StatusSuccess {
		return statusError(req, resp)
	}
	return nil
}

// write sends a database-level request that answers with {"ok": true}.
func (s *DatabaseService) write(ctx context.Context, method, path, database string, body []byte) error {
	if err := requireName("database", database); err != nil {
		return err
	}

	req := driven.Request{Method: method, Path: path, Body: body}
	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return err
	}
	if resp.Category != driven.StatusSuccess {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("database %s: %w", database, domain.ErrNotFound)
		}
		return statusError(req, resp)
	}

	var ack okResponse
	if err := decode(resp, "database response", &ack); err != nil {
		return err
	}
	if !ack.OK {
		return &domain.ParseError{What: "database response: ok is false"}
	}
	return nil
}
