package mcp

import (
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls into.
type Ports struct {
	// Engine queues board changes and reports sync state.
	Engine driving.SyncEngine

	// History lists recorded drain passes. Optional.
	History driving.PassHistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Engine == nil {
		return ErrMissingEngine
	}
	return nil
}
