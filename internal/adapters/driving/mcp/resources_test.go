package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

func TestParseDocumentURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		database string
		id       string
	}{
		{
			name:     "database documents URI",
			uri:      "couchfeed://databases/contacts/documents",
			database: "contacts",
		},
		{
			name:     "document URI",
			uri:      "couchfeed://databases/contacts/documents/alice",
			database: "contacts",
			id:       "alice",
		},
		{
			name: "invalid prefix",
			uri:  "file://databases/contacts/documents",
		},
		{
			name: "missing documents segment",
			uri:  "couchfeed://databases/contacts",
		},
		{
			name: "trailing slash without id",
			uri:  "couchfeed://databases/contacts/documents/",
		},
		{
			name: "suffix glued to documents",
			uri:  "couchfeed://databases/contacts/documentsx",
		},
		{
			name: "empty URI",
			uri:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, id := parseDocumentURI(tt.uri)
			assert.Equal(t, tt.database, database)
			assert.Equal(t, tt.id, id)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDatabasesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil database service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{}})

		result, err := server.handleDatabasesResource(ctx, makeReadResourceRequest("couchfeed://databases"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns database names", func(t *testing.T) {
		server := newTestServer(t, &Ports{
			Documents: &mockDocumentService{},
			Databases: &mockDatabaseService{names: []string{"contacts", "notes"}},
		})

		result, err := server.handleDatabasesResource(ctx, makeReadResourceRequest("couchfeed://databases"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.JSONEq(t, `["contacts","notes"]`, result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{
			Documents: &mockDocumentService{},
			Databases: &mockDatabaseService{err: errors.New("connection refused")},
		})

		_, err := server.handleDatabasesResource(ctx, makeReadResourceRequest("couchfeed://databases"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing databases")
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns listing", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{
			infos: []domain.DocumentInfo{{ID: "alice", Revision: "1-a"}},
		}})

		req := makeReadResourceRequest("couchfeed://databases/contacts/documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"alice","revision":"1-a"}]`, result.Contents[0].Text)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("couchfeed://databases/contacts"))

		assert.Error(t, err)
	})

	t.Run("missing database is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{err: domain.ErrNotFound}})

		req := makeReadResourceRequest("couchfeed://databases/missing/documents")
		_, err := server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns document JSON", func(t *testing.T) {
		doc, err := domain.ParseDocument([]byte(`{"_id":"alice","_rev":"1-a","age":30}`))
		require.NoError(t, err)
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{document: doc}})

		req := makeReadResourceRequest("couchfeed://databases/contacts/documents/alice")
		result, err := server.handleDocumentResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `{"_id":"alice","_rev":"1-a","age":30}`, result.Contents[0].Text)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{}})

		req := makeReadResourceRequest("couchfeed://databases/contacts/documents")
		_, err := server.handleDocumentResource(ctx, req)

		assert.Error(t, err)
	})

	t.Run("fetch failure is wrapped", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{err: errors.New("timeout")}})

		req := makeReadResourceRequest("couchfeed://databases/contacts/documents/alice")
		_, err := server.handleDocumentResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetching document")
	})
}
