package driven

import "context"

// OperationLogStore persists the serialized operation log.
//
// The log is written whole on every mutation; stores keep exactly the bytes
// they were given under the namespace key.
type OperationLogStore interface {
	// LoadOperationLog returns the bytes last saved under namespace.
	// Returns nil and no error if nothing was ever saved.
	LoadOperationLog(ctx context.Context, namespace string) ([]byte, error)

	// SaveOperationLog replaces the log stored under namespace.
	SaveOperationLog(ctx context.Context, namespace string, data []byte) error
}

// AppliedSnapshotStore persists fingerprints of the last snapshot the remote
// store acknowledged for each board.
type AppliedSnapshotStore interface {
	// LoadApplied returns every board fingerprint saved under namespace.
	LoadApplied(ctx context.Context, namespace string) (map[string]string, error)

	// SaveApplied records the fingerprint for a board.
	SaveApplied(ctx context.Context, namespace, boardID, fingerprint string) error

	// DeleteApplied forgets a board.
	DeleteApplied(ctx context.Context, namespace, boardID string) error
}
