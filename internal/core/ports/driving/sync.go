package driving

import (
	"context"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// SyncEngine is the public API of the local-first board sync engine.
//
// Editing calls never block on the network: they buffer or queue work and
// return. Background failures are reported through the status, never as
// errors from these methods. Only ForceFlush reports the outcome of remote
// work to its caller.
type SyncEngine interface {
	// Start runs periodic drain passes until ctx is cancelled or the engine
	// shuts down. It blocks.
	Start(ctx context.Context) error

	// Shutdown flushes buffered edits, stops the scheduler and clears all
	// status subscribers. Later calls return domain.ErrEngineClosed.
	Shutdown(ctx context.Context) error

	// QueueUpdate buffers a snapshot of a board. Only the latest snapshot
	// per board within the quiet period reaches the operation log.
	QueueUpdate(boardID string, snapshot domain.Snapshot) error

	// SubmitUpdate is QueueUpdate reporting whether the edit was buffered.
	// It is false when the snapshot equals the last synced state of a board
	// with no pending work.
	SubmitUpdate(boardID string, snapshot domain.Snapshot) (bool, error)

	// SetActiveDocument switches the board being edited. An empty ID means
	// no board is active. Buffered edits for the previous board are queued
	// immediately.
	SetActiveDocument(ctx context.Context, boardID string) error

	// ForceFlush queues all buffered edits and drains the log, returning
	// the failures of the final pass.
	ForceFlush(ctx context.Context) error

	// Create queues a new board and attempts it immediately. It returns the
	// remote ID, or a placeholder ID if the create is still queued.
	Create(ctx context.Context, name string, snapshot domain.Snapshot) (string, error)

	// Delete discards all pending work for a board and queues its deletion.
	Delete(ctx context.Context, boardID string) error

	// Rename queues a name change.
	Rename(ctx context.Context, boardID, name string) error

	// HasUnsavedChanges reports whether a board has buffered edits or
	// queued operations.
	HasUnsavedChanges(boardID string) bool

	// Status returns the current sync status.
	Status() domain.SyncStatus

	// OnStatusChange registers fn for status changes. The returned function
	// unsubscribes; calling it more than once is safe.
	OnStatusChange(fn func(domain.SyncStatus)) func()

	// PendingOperations returns a copy of the operation log in queue order.
	PendingOperations() []domain.Operation

	// FailedOperations returns operations that exhausted their attempts.
	// They are kept across restarts until retried or their board is deleted.
	FailedOperations() []domain.Operation

	// RetryFailed requeues every failed operation with a fresh attempt count.
	RetryFailed(ctx context.Context) int

	// ResolveID maps a placeholder board ID to its remote ID once created.
	ResolveID(boardID string) string
}
