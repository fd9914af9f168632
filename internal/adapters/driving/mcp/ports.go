package mcp

import (
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Documents performs document CRUD.
	Documents driving.DocumentService

	// Databases lists and describes databases.
	Databases driving.DatabaseService

	// Watcher reports watch state when the server runs alongside a watcher.
	Watcher driving.WatchService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	// Databases and Watcher are optional
	return nil
}
