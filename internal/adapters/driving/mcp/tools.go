package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// FetchDocumentInput is the input schema for the fetch_document tool.
type FetchDocumentInput struct {
	Database string `json:"database" jsonschema:"the database holding the document"`
	ID       string `json:"id" jsonschema:"the document id"`
}

// FetchDocumentOutput is the output schema for the fetch_document tool.
type FetchDocumentOutput struct {
	Found    bool   `json:"found"`
	ID       string `json:"id,omitempty"`
	Revision string `json:"revision,omitempty"`
	Document string `json:"document,omitempty"`
}

// PutDocumentInput is the input schema for the put_document tool.
type PutDocumentInput struct {
	Database string `json:"database" jsonschema:"the database to write to"`
	Body     string `json:"body" jsonschema:"the document as a JSON object; include _id and _rev to update"`
}

// DocumentRefOutput identifies a document revision.
type DocumentRefOutput struct {
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
}

// DeleteDocumentInput is the input schema for the delete_document tool.
type DeleteDocumentInput struct {
	Database string `json:"database" jsonschema:"the database holding the document"`
	ID       string `json:"id" jsonschema:"the document id"`
	Revision string `json:"revision" jsonschema:"the current revision of the document"`
}

// DeleteDocumentOutput is the output schema for the delete_document tool.
type DeleteDocumentOutput struct {
	Deleted bool `json:"deleted"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Database string `json:"database" jsonschema:"the database to list"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentRefOutput `json:"documents"`
	Count     int                 `json:"count"`
}

// DatabaseInfoInput is the input schema for the database_info tool.
type DatabaseInfoInput struct {
	Database string `json:"database" jsonschema:"the database to describe"`
}

// DatabaseInfoOutput is the output schema for the database_info tool.
type DatabaseInfoOutput struct {
	Name           string `json:"name"`
	DocCount       int64  `json:"doc_count"`
	DocDelCount    int64  `json:"doc_del_count"`
	UpdateSequence int64  `json:"update_seq"`
	CompactRunning bool   `json:"compact_running"`
	DiskSize       int64  `json:"disk_size"`
	Watched        bool   `json:"watched"`
	Cursor         int64  `json:"cursor,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_document",
		Description: "Fetch the current revision of a document",
	}, s.handleFetchDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "put_document",
		Description: "Create or update a document; a stale _rev is rejected as a conflict",
	}, s.handlePutDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document at a known revision",
	}, s.handleDeleteDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the id and revision of every document in a database",
	}, s.handleListDocuments)

	if s.ports.Databases != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "database_info",
			Description: "Describe a database, including its update sequence and watch state",
		}, s.handleDatabaseInfo)
	}
}

func (s *Server) handleFetchDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchDocumentInput,
) (*mcp.CallToolResult, FetchDocumentOutput, error) {
	doc, err := s.ports.Documents.Fetch(ctx, input.Database, input.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, FetchDocumentOutput{Found: false}, nil
	}
	if err != nil {
		return nil, FetchDocumentOutput{}, err
	}

	return nil, FetchDocumentOutput{
		Found:    true,
		ID:       doc.ID(),
		Revision: doc.Revision(),
		Document: doc.String(),
	}, nil
}

func (s *Server) handlePutDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PutDocumentInput,
) (*mcp.CallToolResult, DocumentRefOutput, error) {
	doc, err := domain.ParseDocument([]byte(input.Body))
	if err != nil {
		return nil, DocumentRefOutput{}, fmt.Errorf("%w: body is not a JSON object: %v", domain.ErrInvalidInput, err)
	}

	ref, err := s.ports.Documents.Put(ctx, input.Database, doc)
	if err != nil {
		return nil, DocumentRefOutput{}, err
	}
	return nil, DocumentRefOutput{ID: ref.ID, Revision: ref.Revision}, nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	ref := domain.DocumentRef{ID: input.ID, Revision: input.Revision}
	if err := s.ports.Documents.Delete(ctx, input.Database, ref); err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	return nil, DeleteDocumentOutput{Deleted: true}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	infos, err := s.ports.Documents.List(ctx, input.Database)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentRefOutput, len(infos)),
		Count:     len(infos),
	}
	for i, info := range infos {
		output.Documents[i] = DocumentRefOutput{ID: info.ID, Revision: info.Revision}
	}
	return nil, output, nil
}

func (s *Server) handleDatabaseInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DatabaseInfoInput,
) (*mcp.CallToolResult, DatabaseInfoOutput, error) {
	info, err := s.ports.Databases.Info(ctx, input.Database)
	if err != nil {
		return nil, DatabaseInfoOutput{}, err
	}

	output := DatabaseInfoOutput{
		Name:           info.Name,
		DocCount:       info.DocCount,
		DocDelCount:    info.DocDelCount,
		UpdateSequence: info.UpdateSequence,
		CompactRunning: info.CompactRunning,
		DiskSize:       info.DiskSize,
	}
	if s.ports.Watcher != nil {
		if state, err := s.ports.Watcher.State(input.Database); err == nil {
			output.Watched = true
			output.Cursor = state.Cursor
		}
	}
	return nil, output, nil
}
