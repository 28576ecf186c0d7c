package domain

// CreateRequest asks the remote store to create a board.
type CreateRequest struct {
	// Scope is the workspace the board belongs to.
	Scope string

	// CorrelationID is the client-generated placeholder ID. Retrying a
	// create with the same CorrelationID must not produce a second board.
	CorrelationID string

	Name     string
	Snapshot Snapshot
}

// UpdateRequest asks the remote store to replace a board's content, its
// name, or both.
type UpdateRequest struct {
	TargetID string

	// Snapshot replaces the whole board when non-empty.
	Snapshot Snapshot

	// Name renames the board when non-nil.
	Name *string
}

// IsRename reports whether the request only changes the name.
func (r UpdateRequest) IsRename() bool {
	return r.Name != nil && r.Snapshot.IsEmpty()
}
