// Package mcp provides an MCP (Model Context Protocol) server adapter for couchfeed.
// It lets AI assistants read and write documents and inspect databases.
package mcp

import "errors"

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")
