package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent outcomes the caller is expected to branch on.
// Infrastructure failures are reported as *TransportError or *ParseError.
var (
	// ErrNotFound indicates a requested document or database does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrecondition indicates a local precondition failed before any
	// request was sent, e.g. deleting a document without a revision.
	ErrPrecondition = errors.New("precondition failed")

	// ErrConflict indicates the store rejected a write because the
	// supplied revision is stale.
	ErrConflict = errors.New("document update conflict")

	// ErrNotWatching indicates a database has no active watch.
	ErrNotWatching = errors.New("database not watched")

	// ErrWatcherClosed indicates the watcher has been shut down.
	ErrWatcherClosed = errors.New("watcher closed")
)

// TransportError is a network, connection or non-2xx failure talking to the store.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: %s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError indicates a response body did not have the expected shape.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse " + e.What
	}
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the resource is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a stale-revision rejection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPrecondition reports whether err is a local precondition failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParse reports whether err is, or wraps, a *ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
