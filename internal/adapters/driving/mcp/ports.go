package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Ingest indexes documents from object storage.
	Ingest driving.IngestService

	// ChatLog records answered questions.
	ChatLog driving.ChatLogService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Ingest and ChatLog are optional; their tools and resources degrade.
	return nil
}
