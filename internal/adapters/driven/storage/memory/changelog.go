package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
)

// Ensure ChangeLog implements the interface.
var _ driven.ChangeLog = (*ChangeLog)(nil)

// ChangeLog is an in-memory implementation of driven.ChangeLog.
// Records are kept in append order.
type ChangeLog struct {
	mu      sync.RWMutex
	records []domain.ChangeRecord
}

// NewChangeLog creates a new in-memory change log.
func NewChangeLog() *ChangeLog {
	return &ChangeLog{}
}

// Append records a change.
func (l *ChangeLog) Append(_ context.Context, record domain.ChangeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

// Recent returns up to limit records, newest first.
func (l *ChangeLog) Recent(_ context.Context, database string, limit int) ([]domain.ChangeRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.ChangeRecord
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		if database == "" || l.records[i].Database == database {
			out = append(out, l.records[i])
		}
	}
	return out, nil
}

// Prune keeps the newest keep records per database.
func (l *ChangeLog) Prune(_ context.Context, keep int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]int)
	kept := make([]domain.ChangeRecord, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		db := l.records[i].Database
		if seen[db] < keep {
			kept = append(kept, l.records[i])
		}
		seen[db]++
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	l.records = kept
	return nil
}
