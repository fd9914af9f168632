package domain

import (
	"strconv"
	"strings"
)

// DocumentRef identifies a stored document and the revision the caller last saw.
// A ref with an empty Revision has never been persisted.
type DocumentRef struct {
	// ID is the document identifier. Assigned by the store on first creation
	// when the caller leaves it empty.
	ID string

	// Revision is the opaque "<generation>-<hash>" token, empty if unsaved.
	Revision string
}

// HasID reports whether the ref carries a document identifier.
func (r DocumentRef) HasID() bool {
	return r.ID != ""
}

// Persisted reports whether the ref carries a revision.
func (r DocumentRef) Persisted() bool {
	return r.Revision != ""
}

// Generation returns the leading integer of the revision token.
// It returns false when the revision is absent or has no numeric prefix.
func (r DocumentRef) Generation() (int, bool) {
	return RevisionGeneration(r.Revision)
}

// RevisionGeneration parses the decimal generation prefix of a revision token.
// "3-abc" yields 3. Tokens without a positive decimal prefix yield false.
func RevisionGeneration(rev string) (int, bool) {
	if rev == "" {
		return 0, false
	}
	prefix, _, _ := strings.Cut(rev, "-")
	if prefix == "" || prefix[0] < '0' || prefix[0] > '9' {
		return 0, false
	}
	gen, err := strconv.Atoi(prefix)
	if err != nil || gen < 1 {
		return 0, false
	}
	return gen, true
}
