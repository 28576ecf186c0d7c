// Package tui provides the live sync status view used by "boardsync watch".
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Engine is the sync engine whose status is shown.
	Engine driving.SyncEngine
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Engine == nil {
		return ErrMissingEngine
	}
	return nil
}
