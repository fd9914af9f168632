package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

// ChangeFeedReader reads a database's change feed past a cursor.
type ChangeFeedReader struct {
	transport driven.Transport
	pageLimit int
}

// NewChangeFeedReader creates a reader. A positive pageLimit requests the
// feed in pages of that many rows; zero requests it in one response.
func NewChangeFeedReader(transport driven.Transport, pageLimit int) *ChangeFeedReader {
	if pageLimit < 0 {
		pageLimit = 0
	}
	return &ChangeFeedReader{
		transport: transport,
		pageLimit: pageLimit,
	}
}

// changesResponse is the body of GET /{db}/_changes.
type changesResponse struct {
	Results *[]json.RawMessage `json:"results"`
	LastSeq json.RawMessage    `json:"last_seq"`
}

type changeRow struct {
	ID  string          `json:"id"`
	Seq json.RawMessage `json:"seq"`
}

// ReadSince returns every change with a sequence greater than cursor, in
// feed order, and the new cursor. The new cursor is the highest sequence
// observed, never lower than cursor.
//
// Rows that are not objects or carry no id are skipped. A response that is
// not a changes object is a *domain.ParseError.
func (r *ChangeFeedReader) ReadSince(
	ctx context.Context,
	database string,
	cursor int64,
) ([]domain.RawChangeEntry, int64, error) {
	if err := requireName("database", database); err != nil {
		return nil, cursor, err
	}

	var entries []domain.RawChangeEntry
	next := cursor
	for {
		page, pageCursor, rows, err := r.readPage(ctx, database, next)
		if err != nil {
			return nil, cursor, err
		}
		entries = append(entries, page...)

		if r.pageLimit == 0 || rows < r.pageLimit || pageCursor <= next {
			next = pageCursor
			break
		}
		next = pageCursor
	}

	logger.Debug("changes %s since %d: %d entries, cursor %d", database, cursor, len(entries), next)
	return entries, next, nil
}

// readPage fetches one page. It returns the entries, the page's cursor and
// the number of rows the store sent, including skipped ones.
func (r *ChangeFeedReader) readPage(
	ctx context.Context,
	database string,
	since int64,
) ([]domain.RawChangeEntry, int64, int, error) {
	path := databasePath(database) + "_changes?since=" + strconv.FormatInt(since, 10)
	if r.pageLimit > 0 {
		path += "&limit=" + strconv.Itoa(r.pageLimit)
	}

	req := driven.Request{Method: http.MethodGet, Path: path}
	resp, err := send(ctx, r.transport, req)
	if err != nil {
		return nil, since, 0, err
	}
	if resp.Category != driven.StatusSuccess {
		return nil, since, 0, statusError(req, resp)
	}

	var body changesResponse
	if err := decode(resp, "changes response", &body); err != nil {
		return nil, since, 0, err
	}
	if body.Results == nil {
		return nil, since, 0, &domain.ParseError{What: "changes response: missing results"}
	}

	newCursor := since
	entries := make([]domain.RawChangeEntry, 0, len(*body.Results))
	for _, raw := range *body.Results {
		var row changeRow
		if err := json.Unmarshal(raw, &row); err != nil || row.ID == "" {
			logger.Warn("skipping malformed change row in %s: %s", database, string(raw))
			continue
		}
		seq, err := parseSequence(row.Seq)
		if err != nil {
			logger.Warn("skipping change row for %s in %s: %v", row.ID, database, err)
			continue
		}
		entries = append(entries, domain.RawChangeEntry{DocumentID: row.ID, Sequence: seq})
		if seq > newCursor {
			newCursor = seq
		}
	}

	if len(body.LastSeq) > 0 {
		last, err := parseSequence(body.LastSeq)
		if err != nil {
			return nil, since, 0, &domain.ParseError{What: "changes response last_seq", Err: err}
		}
		if last > newCursor {
			newCursor = last
		}
	}

	return entries, newCursor, len(*body.Results), nil
}

// parseSequence accepts a JSON integer or a string whose leading
// "<n>" or "<n>-..." part is an integer.
func parseSequence(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing sequence")
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.Int64()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("sequence %s: %w", string(raw), err)
	}
	prefix, _, _ := strings.Cut(s, "-")
	seq, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sequence %q is not numeric", s)
	}
	return seq, nil
}
