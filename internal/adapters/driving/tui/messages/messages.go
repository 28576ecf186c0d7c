// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// StatusChanged carries a new sync status from the engine.
type StatusChanged struct {
	Status domain.SyncStatus
}

// EditQueued is sent when the watched file produced an edit.
type EditQueued struct {
	At time.Time
}

// FlushCompleted carries the outcome of a forced flush.
type FlushCompleted struct {
	Err error
}

// RetryCompleted reports how many failed operations were requeued.
type RetryCompleted struct {
	Count int
}

// WatchStopped is sent when the edit source ends.
type WatchStopped struct {
	Err error
}
