package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for couchfeed resources.
	uriScheme = "couchfeed://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing databases.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "databases",
		Name:        "databases",
		Description: "Names of all databases on the server",
		MIMEType:    "application/json",
	}, s.handleDatabasesResource)

	// Template for database listings.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "databases/{database}/documents",
		Name:        "database-documents",
		Description: "Id and revision of every document in a database",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for a single document.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "databases/{database}/documents/{documentId}",
		Name:        "document",
		Description: "Current revision of a document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleDatabasesResource returns the names of all databases.
func (s *Server) handleDatabasesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Databases == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	names, err := s.ports.Databases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	if names == nil {
		names = []string{}
	}

	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling databases: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentsResource returns the document listing of a database.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	database, id := parseDocumentURI(req.Params.URI)
	if database == "" || id != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	infos, err := s.ports.Documents.List(ctx, database)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID       string `json:"id"`
		Revision string `json:"revision"`
	}

	out := make([]docInfo, len(infos))
	for i, info := range infos {
		out[i] = docInfo{ID: info.ID, Revision: info.Revision}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentResource returns one document as stored.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	database, id := parseDocumentURI(req.Params.URI)
	if database == "" || id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.Fetch(ctx, database, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document: %w", err)
	}
	return jsonResult(req.Params.URI, doc.String()), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// parseDocumentURI splits couchfeed://databases/{database}/documents[/{id}].
// Both results are empty if the URI does not have that shape.
func parseDocumentURI(uri string) (database, id string) {
	const prefix = uriScheme + "databases/"
	const marker = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	rest := strings.TrimPrefix(uri, prefix)

	i := strings.Index(rest, marker)
	if i <= 0 {
		return "", ""
	}
	database, rest = rest[:i], rest[i+len(marker):]

	switch {
	case rest == "":
		return database, ""
	case strings.HasPrefix(rest, "/") && len(rest) > 1:
		return database, rest[1:]
	default:
		return "", ""
	}
}
