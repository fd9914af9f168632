package domain

import "time"

// DatabaseInfo is the metadata the store reports for a database.
type DatabaseInfo struct {
	Name           string
	DocCount       int64
	DocDelCount    int64
	UpdateSequence int64
	CompactRunning bool
	DiskSize       int64
}

// DocumentInfo is one row of a database's document listing.
type DocumentInfo struct {
	ID       string
	Revision string
}

// ChangeRecord is a classified change as persisted by a change log.
type ChangeRecord struct {
	Origin     ChangeOrigin
	Kind       ChangeKind
	Database   string
	DocumentID string
	Revision   string
	RecordedAt time.Time
}
