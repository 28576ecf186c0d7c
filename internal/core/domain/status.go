package domain

import "time"

// SyncStatus is the externally observable state of the sync engine.
type SyncStatus struct {
	// IsSyncing is true while a drain pass is running.
	IsSyncing bool `json:"isSyncing"`

	// LastSyncTime is when an operation last succeeded. Zero means never.
	LastSyncTime time.Time `json:"lastSyncTime,omitzero"`

	// PendingChanges is true when buffered edits or queued operations exist.
	PendingChanges bool `json:"pendingChanges"`

	// Error is the most recent terminal failure. Empty means none.
	Error string `json:"error,omitempty"`
}

// HasError reports whether a terminal failure is being surfaced.
func (s SyncStatus) HasError() bool {
	return s.Error != ""
}

// HasSynced reports whether any operation has ever succeeded.
func (s SyncStatus) HasSynced() bool {
	return !s.LastSyncTime.IsZero()
}

// Equal compares two statuses field by field.
func (s SyncStatus) Equal(other SyncStatus) bool {
	return s.IsSyncing == other.IsSyncing &&
		s.LastSyncTime.Equal(other.LastSyncTime) &&
		s.PendingChanges == other.PendingChanges &&
		s.Error == other.Error
}

// Label summarises the status in a single word for display.
func (s SyncStatus) Label() string {
	switch {
	case s.IsSyncing:
		return "syncing"
	case s.HasError():
		return "error"
	case s.PendingChanges:
		return "pending"
	case s.HasSynced():
		return "synced"
	default:
		return "idle"
	}
}
