package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// OperationLog is the durable, ordered queue of operations awaiting remote
// application.
//
// At most one operation is pending per (target, kind). The whole log is
// re-serialized to the store after every mutation; store failures are logged
// and the in-memory queue stays authoritative for the rest of the process.
type OperationLog struct {
	store     driven.OperationLogStore
	namespace string
	metrics   driven.SyncMetrics

	mu  sync.Mutex
	ops []domain.Operation
}

// NewOperationLog creates a log bound to namespace and loads any operations
// persisted by an earlier run. metrics may be nil.
func NewOperationLog(
	ctx context.Context,
	store driven.OperationLogStore,
	namespace string,
	metrics driven.SyncMetrics,
) *OperationLog {
	l := &OperationLog{
		store:     store,
		namespace: namespace,
		metrics:   metrics,
	}
	if err := l.Load(ctx); err != nil {
		logger.Warn("operation log: load %s: %v", namespace, err)
	}
	return l
}

// Load replaces the in-memory queue with the persisted one. Records that
// fail validation are dropped; the valid remainder is still loaded.
func (l *OperationLog) Load(ctx context.Context) error {
	data, err := l.store.LoadOperationLog(ctx, l.namespace)
	if err != nil {
		return err
	}
	ops, decodeErr := domain.UnmarshalOperationLog(data)

	l.mu.Lock()
	l.ops = ops
	n := len(ops)
	l.mu.Unlock()

	logger.Debug("operation log: loaded %d operations from %s", n, l.namespace)
	l.recordDepth(ctx, n)
	return decodeErr
}

// Enqueue adds op to the log. If an operation with the same target and kind
// is pending it is replaced where it stands and Enqueue reports true.
func (l *OperationLog) Enqueue(ctx context.Context, op domain.Operation) (bool, error) {
	if err := op.Validate(); err != nil {
		return false, err
	}

	l.mu.Lock()
	replaced := false
	key := op.DedupKey()
	for i := range l.ops {
		if l.ops[i].DedupKey() == key {
			l.ops[i] = op
			replaced = true
			break
		}
	}
	if !replaced {
		l.ops = append(l.ops, op)
	}
	n := len(l.ops)
	l.persistLocked(ctx)
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordEnqueue(ctx, op.Kind, replaced)
	}
	l.recordDepth(ctx, n)
	return replaced, nil
}

// Remove deletes the operation with opID. It reports false when the
// operation is gone, including when a newer replacement took its place.
func (l *OperationLog) Remove(ctx context.Context, opID string) bool {
	l.mu.Lock()
	idx := l.indexLocked(opID)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.ops = append(l.ops[:idx], l.ops[idx+1:]...)
	n := len(l.ops)
	l.persistLocked(ctx)
	l.mu.Unlock()

	l.recordDepth(ctx, n)
	return true
}

// RemoveByTarget purges every operation referencing targetID and returns
// how many were removed.
func (l *OperationLog) RemoveByTarget(ctx context.Context, targetID string) int {
	l.mu.Lock()
	kept := l.ops[:0]
	removed := 0
	for _, op := range l.ops {
		if op.TargetID == targetID {
			removed++
			continue
		}
		kept = append(kept, op)
	}
	l.ops = kept
	n := len(l.ops)
	if removed > 0 {
		l.persistLocked(ctx)
	}
	l.mu.Unlock()

	if removed > 0 {
		l.recordDepth(ctx, n)
	}
	return removed
}

// RecordFailure increments the attempt count of opID and sets its backoff
// deadline. It returns the new count, or false if the operation is gone.
func (l *OperationLog) RecordFailure(ctx context.Context, opID string, notBefore *time.Time) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexLocked(opID)
	if idx < 0 {
		return 0, false
	}
	l.ops[idx].Attempts++
	l.ops[idx].NotBefore = notBefore
	l.persistLocked(ctx)
	return l.ops[idx].Attempts, true
}

// ResolveCreate removes the create operation opID and points every pending
// operation of placeholder at remoteID. It reports whether the create was
// still in the log; false means the board was deleted while the create was
// in flight.
func (l *OperationLog) ResolveCreate(ctx context.Context, opID, placeholder, remoteID string) bool {
	l.mu.Lock()
	idx := l.indexLocked(opID)
	found := idx >= 0
	if found {
		l.ops = append(l.ops[:idx], l.ops[idx+1:]...)
	}
	l.retargetLocked(placeholder, remoteID)
	n := len(l.ops)
	l.persistLocked(ctx)
	l.mu.Unlock()

	l.recordDepth(ctx, n)
	return found
}

// Retarget points every operation of from at to and returns how many moved.
func (l *OperationLog) Retarget(ctx context.Context, from, to string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	moved := l.retargetLocked(from, to)
	if moved > 0 {
		l.persistLocked(ctx)
	}
	return moved
}

// Get returns the operation with opID.
func (l *OperationLog) Get(opID string) (domain.Operation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(opID)
	if idx < 0 {
		return domain.Operation{}, false
	}
	return l.ops[idx], true
}

// Operations returns a copy of the log in queue order.
func (l *OperationLog) Operations() []domain.Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Operation, len(l.ops))
	copy(out, l.ops)
	return out
}

// Len returns the number of pending operations.
func (l *OperationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ops)
}

// HasTarget reports whether any pending operation references targetID.
func (l *OperationLog) HasTarget(targetID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, op := range l.ops {
		if op.TargetID == targetID {
			return true
		}
	}
	return false
}

// HasPending reports whether an operation of kind is queued for targetID.
func (l *OperationLog) HasPending(targetID string, kind domain.OperationKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, op := range l.ops {
		if op.Kind == kind && op.TargetID == targetID {
			return true
		}
	}
	return false
}

func (l *OperationLog) retargetLocked(from, to string) int {
	moved := 0
	for i := range l.ops {
		if l.ops[i].TargetID == from {
			l.ops[i].TargetID = to
			moved++
		}
	}
	return moved
}

func (l *OperationLog) indexLocked(opID string) int {
	for i := range l.ops {
		if l.ops[i].ID == opID {
			return i
		}
	}
	return -1
}

func (l *OperationLog) persistLocked(ctx context.Context) {
	data, err := domain.MarshalOperationLog(l.ops)
	if err != nil {
		logger.Warn("operation log: encode %s: %v", l.namespace, err)
		return
	}
	if err := l.store.SaveOperationLog(ctx, l.namespace, data); err != nil {
		logger.Warn("operation log: persist %s: %v", l.namespace, err)
	}
}

func (l *OperationLog) recordDepth(ctx context.Context, n int) {
	if l.metrics != nil {
		l.metrics.RecordQueueDepth(ctx, n)
	}
}
