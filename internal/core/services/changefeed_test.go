package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

func TestChangeFeedReader_ReadSince(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=4", http.StatusOK, `{
		"results": [
			{"seq":5,"id":"alice","changes":[{"rev":"2-a"}]},
			{"seq":7,"id":"bob","changes":[{"rev":"1-b"}]}
		],
		"last_seq": 7
	}`)
	reader := NewChangeFeedReader(transport, 0)

	entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 4)

	require.NoError(t, err)
	assert.Equal(t, []domain.RawChangeEntry{
		{DocumentID: "alice", Sequence: 5},
		{DocumentID: "bob", Sequence: 7},
	}, entries)
	assert.Equal(t, int64(7), cursor)
}

func TestChangeFeedReader_Empty(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=0", http.StatusOK, `{"results":[],"last_seq":0}`)
	reader := NewChangeFeedReader(transport, 0)

	entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), cursor)
}

func TestChangeFeedReader_CursorNeverMovesBackwards(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=10", http.StatusOK, `{"results":[],"last_seq":3}`)
	reader := NewChangeFeedReader(transport, 0)

	_, cursor, err := reader.ReadSince(context.Background(), "contacts", 10)

	require.NoError(t, err)
	assert.Equal(t, int64(10), cursor)
}

func TestChangeFeedReader_UsesHighestSequence(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=0", http.StatusOK, `{
		"results": [{"seq":9,"id":"a"},{"seq":4,"id":"b"}],
		"last_seq": 6
	}`)
	reader := NewChangeFeedReader(transport, 0)

	_, cursor, err := reader.ReadSince(context.Background(), "contacts", 0)

	require.NoError(t, err)
	assert.Equal(t, int64(9), cursor)
}

func TestChangeFeedReader_SkipsMalformedRows(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=0", http.StatusOK, `{
		"results": [
			"garbage",
			{"seq":1},
			{"seq":"x","id":"bad-seq"},
			{"seq":2,"id":"good"}
		],
		"last_seq": 2
	}`)
	reader := NewChangeFeedReader(transport, 0)

	entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 0)

	require.NoError(t, err)
	assert.Equal(t, []domain.RawChangeEntry{{DocumentID: "good", Sequence: 2}}, entries)
	assert.Equal(t, int64(2), cursor)
}

func TestChangeFeedReader_MissingResultsIsParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no results", body: `{"last_seq":3}`},
		{name: "not json", body: `<html>`},
		{name: "bad last_seq", body: `{"results":[],"last_seq":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newMockTransport()
			transport.respond(http.MethodGet, "/contacts/_changes?since=2", http.StatusOK, tt.body)
			reader := NewChangeFeedReader(transport, 0)

			entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 2)

			assert.True(t, domain.IsParse(err))
			assert.Nil(t, entries)
			assert.Equal(t, int64(2), cursor)
		})
	}
}

func TestChangeFeedReader_TransportFailureKeepsCursor(t *testing.T) {
	transport := newMockTransport()
	transport.fail(http.MethodGet, "/contacts/_changes?since=5",
		&domain.TransportError{Method: http.MethodGet, URL: "/contacts/_changes", Err: errors.New("timeout")})
	reader := NewChangeFeedReader(transport, 0)

	entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 5)

	assert.True(t, domain.IsTransport(err))
	assert.Nil(t, entries)
	assert.Equal(t, int64(5), cursor)
}

func TestChangeFeedReader_ErrorStatus(t *testing.T) {
	transport := newMockTransport()
	reader := NewChangeFeedReader(transport, 0)

	_, _, err := reader.ReadSince(context.Background(), "missing", 0)

	var terr *domain.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
}

func TestChangeFeedReader_Pages(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=0&limit=2", http.StatusOK,
		`{"results":[{"seq":1,"id":"a"},{"seq":2,"id":"b"}],"last_seq":2}`)
	transport.respond(http.MethodGet, "/contacts/_changes?since=2&limit=2", http.StatusOK,
		`{"results":[{"seq":3,"id":"c"}],"last_seq":3}`)
	reader := NewChangeFeedReader(transport, 2)

	entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 0)

	require.NoError(t, err)
	assert.Equal(t, []domain.RawChangeEntry{
		{DocumentID: "a", Sequence: 1},
		{DocumentID: "b", Sequence: 2},
		{DocumentID: "c", Sequence: 3},
	}, entries)
	assert.Equal(t, int64(3), cursor)
	assert.Len(t, transport.recorded(), 2)
}

func TestChangeFeedReader_PageFailureDiscardsEarlierPages(t *testing.T) {
	transport := newMockTransport()
	transport.respond(http.MethodGet, "/contacts/_changes?since=0&limit=1", http.StatusOK,
		`{"results":[{"seq":1,"id":"a"}],"last_seq":1}`)
	transport.respond(http.MethodGet, "/contacts/_changes?since=1&limit=1", http.StatusBadGateway, ``)
	reader := NewChangeFeedReader(transport, 1)

	entries, cursor, err := reader.ReadSince(context.Background(), "contacts", 0)

	require.Error(t, err)
	assert.Nil(t, entries)
	assert.Equal(t, int64(0), cursor)
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `12`, want: 12},
		{raw: `"12"`, want: 12},
		{raw: `"34-g1AAAAB"`, want: 34},
		{raw: `null`, wantErr: true},
		{raw: `"opaque"`, wantErr: true},
		{raw: `1.5`, wantErr: true},
		{raw: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseSequence(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
