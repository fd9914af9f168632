package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

// Ensure DocumentStore implements the interface.
var _ driving.DocumentService = (*DocumentStore)(nil)

// DocumentStore performs revision-aware CRUD against the remote store.
// It never retries; retry policy belongs to the caller.
type DocumentStore struct {
	transport driven.Transport
	bus       *EventBus
}

// NewDocumentStore creates a document store. bus may be nil, in which
// case local write events are not published.
func NewDocumentStore(transport driven.Transport, bus *EventBus) *DocumentStore {
	return &DocumentStore{
		transport: transport,
		bus:       bus,
	}
}

// Fetch returns the current revision of a document.
func (s *DocumentStore) Fetch(ctx context.Context, database, id string) (*domain.Document, error) {
	if err := requireName("database", database); err != nil {
		return nil, err
	}
	if err := requireName("document", id); err != nil {
		return nil, err
	}

	req := driven.Request{Method: http.MethodGet, Path: documentPath(database, id)}
	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.Category == driven.StatusSuccess:
		doc, err := domain.ParseDocument(resp.Body)
		if err != nil {
			return nil, &domain.ParseError{What: "document " + id, Err: err}
		}
		return doc, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("document %s/%s: %w", database, id, domain.ErrNotFound)
	default:
		return nil, statusError(req, resp)
	}
}

// Put creates or updates a document and updates its ref in place.
//
// A document without an ID is POSTed to the database and the store assigns
// the ID. A document with an ID is PUT to its own URL carrying its current
// revision. The local event is Created or Updated according to whether the
// document had an ID before the call.
func (s *DocumentStore) Put(ctx context.Context, database string, doc *domain.Document) (domain.DocumentRef, error) {
	if err := requireName("database", database); err != nil {
		return domain.DocumentRef{}, err
	}
	if doc == nil {
		return domain.DocumentRef{}, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("encode document: %w", err)
	}

	hadID := doc.Ref().HasID()
	req := driven.Request{Method: http.MethodPost, Path: databasePath(database), Body: body}
	if hadID {
		req = driven.Request{Method: http.MethodPut, Path: documentPath(database, doc.ID()), Body: body}
	}

	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return domain.DocumentRef{}, err
	}
	if resp.Category != driven.StatusSuccess {
		if resp.StatusCode == http.StatusConflict {
			return domain.DocumentRef{}, conflictError(req, resp, doc.Revision())
		}
		return domain.DocumentRef{}, statusError(req, resp)
	}

	var ack okResponse
	if err := decode(resp, "put response", &ack); err != nil {
		return domain.DocumentRef{}, err
	}
	if ack.ID == "" || ack.Rev == "" {
		return domain.DocumentRef{}, &domain.ParseError{What: "put response: missing id or rev"}
	}

	ref := domain.DocumentRef{ID: ack.ID, Revision: ack.Rev}
	doc.SetRef(ref)
	logger.Debug("put %s/%s -> %s", database, ref.ID, ref.Revision)

	if s.bus != nil {
		if hadID {
			s.bus.PublishLocal(domain.Updated(database, doc))
		} else {
			s.bus.PublishLocal(domain.Created(database, doc))
		}
	}
	return ref, nil
}

// Delete removes a document at a known revision.
func (s *DocumentStore) Delete(ctx context.Context, database string, ref domain.DocumentRef) error {
	if err := requireName("database", database); err != nil {
		return err
	}
	if !ref.HasID() || !ref.Persisted() {
		return fmt.Errorf("delete %s/%s: id and revision are required: %w", database, ref.ID, domain.ErrPrecondition)
	}

	path := documentPath(database, ref.ID) + "?rev=" + url.QueryEscape(ref.Revision)
	req := driven.Request{Method: http.MethodDelete, Path: path}
	resp, err := send(ctx, s.transport, req)
	if err != nil {
		return err
	}
	if resp.Category != driven.StatusSuccess {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("delete %s/%s: %w", database, ref.ID, domain.ErrNotFound)
		case http.StatusConflict:
			return conflictError(req, resp, ref.Revision)
		}
		return statusError(req, resp)
	}

	logger.Debug("deleted %s/%s at %s", database, ref.ID, ref.Revision)
	if s.bus != nil {
		s.bus.PublishLocal(domain.Deleted(database, ref.ID))
	}
	return nil
}

// allDocsResponse is the body of GET /{db}/_all_docs.
type allDocsResponse struct {
	Rows []struct {
		ID    string `json:"id"`
		Value struct {
			Rev string `json:"rev"`
		} `json:"value"`
	} `json:"rows"`
}

// List returns the id and revision of every document in a database.
func (s *DocumentStore) List(ctx context.Context, database string) ([]domain.DocumentInfo, error) {
	if err := requireName("database", database); err != nil {
		return nil, err
	}

	req := driven.Request{Method: http.MethodGet, Path: databasePath(database) + "_all_docs"}
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

	var body allDocsResponse
	if err := decode(resp, "document listing", &body); err != nil {
		return nil, err
	}

	docs := make([]domain.DocumentInfo, 0, len(body.Rows))
	for _, row := range body.Rows {
		if row.ID == "" {
			continue
		}
		docs = append(docs, domain.DocumentInfo{ID: row.ID, Revision: row.Value.Rev})
	}
	return docs, nil
}
