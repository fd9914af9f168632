package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
)

// changeLog implements driven.ChangeLog.
type changeLog struct {
	store *Store
}

var _ driven.ChangeLog = (*changeLog)(nil)

// Append records a change.
func (l *changeLog) Append(ctx context.Context, record domain.ChangeRecord) error {
	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO change_log (origin, kind, db_name, document_id, revision, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.Origin.String(), record.Kind.String(), record.Database,
		record.DocumentID, record.Revision, formatTime(record.RecordedAt))
	if err != nil {
		return fmt.Errorf("recording change: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (l *changeLog) Recent(ctx context.Context, database string, limit int) ([]domain.ChangeRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if database == "" {
		rows, err = l.store.db.QueryContext(ctx, `
			SELECT origin, kind, db_name, document_id, revision, recorded_at
			FROM change_log
			ORDER BY seq DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = l.store.db.QueryContext(ctx, `
			SELECT origin, kind, db_name, document_id, revision, recorded_at
			FROM change_log
			WHERE db_name = ?
			ORDER BY seq DESC
			LIMIT ?
		`, database, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying change log: %w", err)
	}
	defer rows.Close()

	var records []domain.ChangeRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanChangeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change log: %w", err)
	}
	return records, nil
}

// Prune keeps the newest keep records per database.
func (l *changeLog) Prune(ctx context.Context, keep int) error {
	_, err := l.store.db.ExecContext(ctx, `
		DELETE FROM change_log
		WHERE seq NOT IN (
			SELECT seq FROM (
				SELECT seq, ROW_NUMBER() OVER (PARTITION BY db_name ORDER BY seq DESC) as rn
				FROM change_log
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning change log: %w", err)
	}
	return nil
}

// scanChangeRecord scans a change record from *sql.Rows.
func scanChangeRecord(rows *sql.Rows) (*domain.ChangeRecord, error) {
	var record domain.ChangeRecord
	var origin, kind, recordedAt string

	if err := rows.Scan(&origin, &kind, &record.Database,
		&record.DocumentID, &record.Revision, &recordedAt); err != nil {
		return nil, fmt.Errorf("scanning change record: %w", err)
	}

	var err error
	if record.Origin, err = domain.ParseChangeOrigin(origin); err != nil {
		return nil, fmt.Errorf("scanning change record: %w", err)
	}
	if record.Kind, err = domain.ParseChangeKind(kind); err != nil {
		return nil, fmt.Errorf("scanning change record: %w", err)
	}
	record.RecordedAt = parseTime(recordedAt)

	return &record, nil
}
