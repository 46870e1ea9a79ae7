package mcp

import (
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Chat answers and searches. Required.
	Chat driving.ChatService

	// Ingest enables the import_records tool.
	Ingest driving.IngestService

	// Collection backs the collection://info resource.
	Collection driving.CollectionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
