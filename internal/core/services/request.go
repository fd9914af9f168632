package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
)

// storeError is the error body the store returns with non-2xx responses.
type storeError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// databasePath returns "/{db}/" with the name escaped.
func databasePath(database string) string {
	return "/" + url.PathEscape(database) + "/"
}

// documentPath returns "/{db}/{id}" with both parts escaped.
func documentPath(database, id string) string {
	return "/" + url.PathEscape(database) + "/" + url.PathEscape(id)
}

func requireName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s name is required", domain.ErrInvalidInput, kind)
	}
	return nil
}

// send performs a request and returns the response for any status.
// A nil transport is reported as a transport failure.
func send(ctx context.Context, t driven.Transport, req driven.Request) (*driven.Response, error) {
	if t == nil {
		return nil, &domain.TransportError{Method: req.Method, URL: req.Path, Err: errors.New("no transport configured")}
	}
	resp, err := t.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// statusError builds a TransportError for a non-2xx response, using the
// store's reason when the body carries one.
func statusError(req driven.Request, resp *driven.Response) error {
	msg := resp.Reason
	var se storeError
	if json.Unmarshal(resp.Body, &se) == nil {
		switch {
		case se.Error != "" && se.Reason != "":
			msg = se.Error + ": " + se.Reason
		case se.Error != "":
			msg = se.Error
		case se.Reason != "":
			msg = se.Reason
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &domain.TransportError{
		Method:     req.Method,
		URL:        req.Path,
		StatusCode: resp.StatusCode,
		Err:        errors.New(msg),
	}
}

// conflictError reports a stale-revision rejection. It matches both
// domain.ErrConflict and *domain.TransportError, so the status stays visible.
func conflictError(req driven.Request, resp *driven.Response, rev string) error {
	return &domain.TransportError{
		Method:     req.Method,
		URL:        req.Path,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%w at revision %q", domain.ErrConflict, rev),
	}
}

// decode unmarshals a success body, reporting failures as ParseError.
func decode(resp *driven.Response, what string, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &domain.ParseError{What: what, Err: err}
	}
	return nil
}

// okResponse is the acknowledgement body of most write endpoints.
type okResponse struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}
