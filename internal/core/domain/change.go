package domain

import "fmt"

// RawChangeEntry is one row of a database change feed.
type RawChangeEntry struct {
	DocumentID string
	Sequence   int64
}

// ChangeKind is the classification of a document change.
type ChangeKind int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeKind = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the lower-case name of the kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ParseChangeKind is the inverse of ChangeKind.String.
func ParseChangeKind(s string) (ChangeKind, error) {
	switch s {
	case "created":
		return ChangeCreated, nil
	case "updated":
		return ChangeUpdated, nil
	case "deleted":
		return ChangeDeleted, nil
	default:
		return 0, fmt.Errorf("%w: change kind %q", ErrInvalidInput, s)
	}
}

// ChangeOrigin distinguishes writes made by this process from changes
// observed on the remote change feed.
type ChangeOrigin int

const (
	// OriginLocal marks a write completed by this process.
	OriginLocal ChangeOrigin = iota

	// OriginRemote marks a change observed by a database watcher.
	OriginRemote
)

// String returns the lower-case name of the origin.
func (o ChangeOrigin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}

// ParseChangeOrigin is the inverse of ChangeOrigin.String.
func ParseChangeOrigin(s string) (ChangeOrigin, error) {
	switch s {
	case "local":
		return OriginLocal, nil
	case "remote":
		return OriginRemote, nil
	default:
		return 0, fmt.Errorf("%w: change origin %q", ErrInvalidInput, s)
	}
}

// ClassifiedChange is a reconciled change. Document is set for Created and
// Updated and nil for Deleted; DocumentID is always set.
type ClassifiedChange struct {
	Kind       ChangeKind
	Database   string
	DocumentID string
	Document   *Document
}

// Created builds a Created change.
func Created(database string, doc *Document) ClassifiedChange {
	return ClassifiedChange{Kind: ChangeCreated, Database: database, DocumentID: doc.ID(), Document: doc}
}

// Updated builds an Updated change.
func Updated(database string, doc *Document) ClassifiedChange {
	return ClassifiedChange{Kind: ChangeUpdated, Database: database, DocumentID: doc.ID(), Document: doc}
}

// Deleted builds a Deleted change.
func Deleted(database, id string) ClassifiedChange {
	return ClassifiedChange{Kind: ChangeDeleted, Database: database, DocumentID: id}
}
