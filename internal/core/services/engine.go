package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncEngine = (*SyncEngine)(nil)

// EngineDeps are the driven ports a SyncEngine is built from.
type EngineDeps struct {
	// Gateway applies operations remotely. Required.
	Gateway driven.RemoteGateway

	// OperationStore persists the operation log. Required.
	OperationStore driven.OperationLogStore

	// Clock drives the debounce timer and the sync ticker. Required.
	Clock driven.Clock

	// AppliedStore persists applied snapshot fingerprints. Optional.
	AppliedStore driven.AppliedSnapshotStore

	// History records drain passes. Optional.
	History driven.PassHistoryStore

	// Metrics receives measurements. Optional.
	Metrics driven.SyncMetrics

	// NewID generates operation and placeholder IDs. Defaults to UUIDv7.
	NewID func() string
}

// SyncEngine is the local-first board sync engine. It wires the mutation
// buffer, the operation log, the scheduler and the status broadcaster
// together behind the driving.SyncEngine API.
type SyncEngine struct {
	config    domain.EngineConfig
	clock     driven.Clock
	newID     func() string
	log       *OperationLog
	failed    *OperationLog
	applied   *AppliedCache
	buffer    *MutationBuffer
	status    *StatusBroadcaster
	scheduler *Scheduler

	mu     sync.RWMutex
	closed bool
}

// FailedNamespace is the store namespace holding the operations of namespace
// that exhausted their attempts.
func FailedNamespace(namespace string) string {
	return namespace + "-failed"
}

// NewSyncEngine creates an engine for cfg.Scope and reloads any operations
// queued or failed in an earlier run. Call Start to begin periodic passes.
func NewSyncEngine(ctx context.Context, cfg domain.EngineConfig, deps EngineDeps) (*SyncEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("%w: remote gateway is required", domain.ErrInvalidInput)
	}
	if deps.OperationStore == nil {
		return nil, fmt.Errorf("%w: operation store is required", domain.ErrInvalidInput)
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("%w: clock is required", domain.ErrInvalidInput)
	}
	if deps.NewID == nil {
		deps.NewID = newUUID
	}

	e := &SyncEngine{
		config: cfg,
		clock:  deps.Clock,
		newID:  deps.NewID,
	}
	e.log = NewOperationLog(ctx, deps.OperationStore, cfg.Namespace, deps.Metrics)
	e.failed = NewOperationLog(ctx, deps.OperationStore, FailedNamespace(cfg.Namespace), nil)
	e.applied = NewAppliedCache(ctx, deps.AppliedStore, cfg.Namespace)
	e.buffer = NewMutationBuffer(
		deps.Clock,
		cfg.DebounceDelay,
		e.applied,
		func(boardID string) bool { return e.log.HasPending(boardID, domain.OpUpdate) },
		e.promote,
		func() { e.status.Refresh() },
	)
	e.status = NewStatusBroadcaster(func() bool {
		return e.log.Len() > 0 || e.buffer.PendingCount() > 0
	})
	e.scheduler = NewScheduler(cfg, e.log, e.failed, deps.Gateway, e.status, e.applied,
		deps.Clock, deps.History, deps.Metrics, deps.NewID)
	e.scheduler.OnCreateResolved(e.buffer.Retarget)

	e.status.Refresh()
	if n := e.failed.Len(); n > 0 {
		e.status.RecordError(fmt.Sprintf("%d operation(s) failed after %d attempts and wait for a retry",
			n, cfg.MaxAttempts))
	}
	logger.Debug("engine: scope %s, %d operations pending, %d failed", cfg.Scope, e.log.Len(), e.failed.Len())
	return e, nil
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Config returns the engine configuration.
func (e *SyncEngine) Config() domain.EngineConfig {
	return e.config
}

// Start runs periodic drain passes. It blocks until ctx is cancelled or the
// engine shuts down.
func (e *SyncEngine) Start(ctx context.Context) error {
	if e.isClosed() {
		return domain.ErrEngineClosed
	}
	return e.scheduler.Start(ctx)
}

// Shutdown flushes buffered edits and drains the log once, then stops the
// scheduler and drops every status subscriber. The flush error, if any, is
// returned; the engine is closed either way.
func (e *SyncEngine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return domain.ErrEngineClosed
	}
	e.closed = true
	e.mu.Unlock()

	e.buffer.Flush()
	flushErr := e.scheduler.Drain(ctx)
	e.buffer.Stop()
	stopErr := e.scheduler.Stop()
	e.status.Close()

	logger.Debug("engine: shut down with %d operations pending", e.log.Len())
	return errors.Join(flushErr, stopErr)
}

// Close releases the engine without sending anything. Buffered edits are
// discarded and queued operations stay in the log untouched, attempts
// included. It is meant for processes that only inspect the engine.
func (e *SyncEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return domain.ErrEngineClosed
	}
	e.closed = true
	e.mu.Unlock()

	if n := e.buffer.PendingCount(); n > 0 {
		logger.Warn("engine: closing with %d unsaved edit(s)", n)
	}
	e.buffer.Stop()
	err := e.scheduler.Stop()
	e.status.Close()
	return err
}

// QueueUpdate buffers snapshot as the latest state of boardID.
func (e *SyncEngine) QueueUpdate(boardID string, snapshot domain.Snapshot) error {
	_, err := e.SubmitUpdate(boardID, snapshot)
	return err
}

// SubmitUpdate buffers snapshot like QueueUpdate and reports whether the
// edit was taken. An edit matching the last synced state of a board with
// nothing pending is not.
func (e *SyncEngine) SubmitUpdate(boardID string, snapshot domain.Snapshot) (bool, error) {
	if e.isClosed() {
		return false, domain.ErrEngineClosed
	}
	if strings.TrimSpace(boardID) == "" {
		return false, fmt.Errorf("%w: board id is required", domain.ErrInvalidInput)
	}
	if snapshot.IsEmpty() {
		return false, fmt.Errorf("%w: snapshot is required", domain.ErrInvalidInput)
	}
	normalized, err := domain.ParseSnapshot(snapshot)
	if err != nil {
		return false, err
	}

	if !e.buffer.Submit(e.ResolveID(boardID), normalized) {
		logger.Debug("engine: %s unchanged since last sync, ignoring edit", boardID)
		return false, nil
	}
	return true, nil
}

// SetActiveDocument switches the active board, queuing any buffered edit of
// the previous one and starting a background pass for it.
func (e *SyncEngine) SetActiveDocument(ctx context.Context, boardID string) error {
	if e.isClosed() {
		return domain.ErrEngineClosed
	}
	if boardID != "" {
		boardID = e.ResolveID(boardID)
	}
	if e.buffer.SwitchActive(boardID) {
		e.scheduler.Kick(context.WithoutCancel(ctx))
	}
	return nil
}

// ForceFlush queues every buffered edit and drains the log, returning the
// failures of that pass.
func (e *SyncEngine) ForceFlush(ctx context.Context) error {
	if e.isClosed() {
		return domain.ErrEngineClosed
	}
	e.buffer.Flush()
	return e.scheduler.Drain(ctx)
}

// Create queues a new board and attempts it at once. The returned ID is the
// remote one when the create succeeded and a placeholder otherwise; the
// placeholder stays usable and resolves once the create lands.
func (e *SyncEngine) Create(ctx context.Context, name string, snapshot domain.Snapshot) (string, error) {
	if e.isClosed() {
		return "", domain.ErrEngineClosed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: board name is required", domain.ErrInvalidInput)
	}

	if !snapshot.IsEmpty() {
		normalized, err := domain.ParseSnapshot(snapshot)
		if err != nil {
			return "", err
		}
		snapshot = normalized
	}

	placeholder := domain.PlaceholderPrefix + e.newID()
	op, err := domain.NewCreateOperation(e.newID(), placeholder, name, snapshot, e.clock.Now())
	if err != nil {
		return "", err
	}
	if _, err := e.log.Enqueue(ctx, op); err != nil {
		return "", err
	}
	e.status.Refresh()

	e.scheduler.Trigger(ctx)
	return e.ResolveID(placeholder), nil
}

// Delete discards buffered edits and queued operations of boardID and
// queues its remote deletion. A board whose create never reached the remote
// store is simply forgotten.
func (e *SyncEngine) Delete(ctx context.Context, boardID string) error {
	if e.isClosed() {
		return domain.ErrEngineClosed
	}
	if strings.TrimSpace(boardID) == "" {
		return fmt.Errorf("%w: board id is required", domain.ErrInvalidInput)
	}
	boardID = e.ResolveID(boardID)

	e.buffer.Discard(boardID)
	removed := e.log.RemoveByTarget(ctx, boardID)
	e.scheduler.DiscardFailed(ctx, boardID)
	if removed > 0 {
		logger.Debug("engine: dropped %d pending operations of deleted board %s", removed, boardID)
	}

	if domain.IsPlaceholderID(boardID) {
		e.applied.Forget(ctx, boardID)
		e.status.Refresh()
		return nil
	}

	op, err := domain.NewDeleteOperation(e.newID(), boardID, e.clock.Now())
	if err != nil {
		return err
	}
	if _, err := e.log.Enqueue(ctx, op); err != nil {
		return err
	}
	e.status.Refresh()
	e.scheduler.Kick(context.WithoutCancel(ctx))
	return nil
}

// Rename queues a name change for boardID.
func (e *SyncEngine) Rename(ctx context.Context, boardID, name string) error {
	if e.isClosed() {
		return domain.ErrEngineClosed
	}
	if strings.TrimSpace(boardID) == "" {
		return fmt.Errorf("%w: board id is required", domain.ErrInvalidInput)
	}

	op, err := domain.NewRenameOperation(e.newID(), e.ResolveID(boardID), strings.TrimSpace(name), e.clock.Now())
	if err != nil {
		return err
	}
	if _, err := e.log.Enqueue(ctx, op); err != nil {
		return err
	}
	e.status.Refresh()
	e.scheduler.Kick(context.WithoutCancel(ctx))
	return nil
}

// HasUnsavedChanges reports whether boardID has buffered edits or queued
// operations.
func (e *SyncEngine) HasUnsavedChanges(boardID string) bool {
	id := e.ResolveID(boardID)
	return e.buffer.HasPending(id) || e.log.HasTarget(id)
}

// Status returns the current sync status.
func (e *SyncEngine) Status() domain.SyncStatus {
	return e.status.Status()
}

// OnStatusChange subscribes fn to status changes.
func (e *SyncEngine) OnStatusChange(fn func(domain.SyncStatus)) func() {
	return e.status.Subscribe(fn)
}

// PendingOperations returns the operation log in queue order.
func (e *SyncEngine) PendingOperations() []domain.Operation {
	return e.log.Operations()
}

// FailedOperations returns operations dropped after exhausting their attempts.
func (e *SyncEngine) FailedOperations() []domain.Operation {
	return e.scheduler.FailedOperations()
}

// RetryFailed requeues failed operations and starts a background pass.
func (e *SyncEngine) RetryFailed(ctx context.Context) int {
	if e.isClosed() {
		return 0
	}
	n := e.scheduler.RetryFailed(ctx)
	e.status.Refresh()
	if n > 0 {
		e.scheduler.Kick(context.WithoutCancel(ctx))
	}
	return n
}

// ResolveID maps a placeholder board ID to its remote ID once created.
func (e *SyncEngine) ResolveID(boardID string) string {
	return e.scheduler.ResolveID(boardID)
}

// promote turns flushed edits into update operations.
func (e *SyncEngine) promote(edits []PendingEdit) {
	ctx := context.Background()
	for _, edit := range edits {
		target := e.ResolveID(edit.BoardID)
		op, err := domain.NewUpdateOperation(e.newID(), target, edit.Snapshot, e.clock.Now())
		if err != nil {
			logger.Warn("engine: dropping edit of %s: %v", target, err)
			continue
		}
		if _, err := e.log.Enqueue(ctx, op); err != nil {
			logger.Warn("engine: dropping edit of %s: %v", target, err)
		}
	}
}

func (e *SyncEngine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
