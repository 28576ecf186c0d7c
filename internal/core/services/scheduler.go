package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler drains the operation log against the remote gateway, on a fixed
// interval and on demand.
//
// At most one pass runs at a time. Trigger is ignored while a pass is in
// flight; Drain waits for it and then runs its own.
type Scheduler struct {
	config  domain.EngineConfig
	log     *OperationLog
	gateway driven.RemoteGateway
	status  *StatusBroadcaster
	applied *AppliedCache
	clock   driven.Clock
	history driven.PassHistoryStore
	metrics driven.SyncMetrics
	backoff *Backoff
	newID   func() string

	passMu sync.Mutex

	mu        sync.Mutex
	running   bool
	closed    bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	onResolve func(placeholder, remoteID string)

	// failed holds operations that exhausted their attempts. It is
	// persisted so they survive the process until retried or deleted.
	failed *OperationLog

	stateMu  sync.RWMutex
	resolved map[string]string
}

// NewScheduler creates a scheduler with configuration. failed receives
// operations that exhaust their attempts.
// history and metrics are optional - if nil, passes are not recorded.
func NewScheduler(
	config domain.EngineConfig,
	log *OperationLog,
	failed *OperationLog,
	gateway driven.RemoteGateway,
	status *StatusBroadcaster,
	applied *AppliedCache,
	clock driven.Clock,
	history driven.PassHistoryStore,
	metrics driven.SyncMetrics,
	newID func() string,
) *Scheduler {
	return &Scheduler{
		config:   config,
		log:      log,
		failed:   failed,
		gateway:  gateway,
		status:   status,
		applied:  applied,
		clock:    clock,
		history:  history,
		metrics:  metrics,
		backoff:  NewBackoff(config.Backoff, config.SyncInterval),
		newID:    newID,
		resolved: make(map[string]string),
	}
}

// OnCreateResolved registers fn to run when a queued create receives its
// remote ID. It must be called before the first pass.
func (s *Scheduler) OnCreateResolved(fn func(placeholder, remoteID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResolve = fn
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.closed {
		s.mu.Unlock()
		return nil // Already running or stopped
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	err := s.run(ctx, stopCh)

	s.mu.Lock()
	if s.running && s.stopCh == stopCh {
		s.running = false
	}
	s.mu.Unlock()
	return err
}

// Stop gracefully shuts down the scheduler and waits for in-flight passes.
// A stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	s.closed = true
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	// Retry anything left over from a previous run immediately
	s.runIfIdle(ctx, domain.TriggerPeriodic)

	ticker := s.clock.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C():
			s.runIfIdle(ctx, domain.TriggerPeriodic)
		}
	}
}

// Trigger runs a pass now unless one is already in flight.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	return s.runIfIdle(ctx, domain.TriggerManual)
}

// Kick triggers a pass in the background. It is a no-op once stopped.
func (s *Scheduler) Kick(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.Trigger(ctx)
	}()
}

// Drain waits for any in-flight pass, then runs a pass that ignores backoff
// deadlines. It returns the failures of that pass wrapped in
// domain.ErrFlushFailed.
func (s *Scheduler) Drain(ctx context.Context) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	return s.runPass(ctx, domain.TriggerFlush, true)
}

func (s *Scheduler) runIfIdle(ctx context.Context, trigger domain.PassTrigger) bool {
	if !s.passMu.TryLock() {
		logger.Debug("scheduler: %s pass skipped, another pass is running", trigger)
		return false
	}
	defer s.passMu.Unlock()

	if err := s.runPass(ctx, trigger, false); err != nil {
		logger.Debug("scheduler: %s pass: %v", trigger, err)
	}
	return true
}

// runPass executes one pass and records its outcome. Callers hold passMu.
func (s *Scheduler) runPass(ctx context.Context, trigger domain.PassTrigger, force bool) error {
	ops := s.log.Operations()
	if len(ops) == 0 {
		s.status.Refresh()
		return nil
	}

	s.status.BeginPass()
	result, err := s.drain(ctx, ops, trigger, force)
	result.EndedAt = s.clock.Now()
	s.status.EndPass()

	logger.Debug("scheduler: %s pass: %d attempted, %d succeeded, %d failed, %d dropped, %d skipped",
		trigger, result.Attempted, result.Succeeded, result.Failed, result.Dropped, result.Skipped)

	if s.metrics != nil {
		s.metrics.RecordPass(ctx, result)
	}
	s.recordHistory(ctx, &result)
	return err
}

func (s *Scheduler) recordHistory(ctx context.Context, result *domain.PassResult) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordPass(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record pass %s: %v", result.ID, err)
		return
	}
	if s.config.HistoryRetention > 0 {
		if err := s.history.PruneHistory(ctx, s.config.HistoryRetention); err != nil {
			logger.Warn("scheduler: failed to prune history: %v", err)
		}
	}
}

// FailedOperations returns operations dropped after exhausting their attempts.
func (s *Scheduler) FailedOperations() []domain.Operation {
	return s.failed.Operations()
}

// RetryFailed puts every failed operation back in the log with a fresh
// attempt count and clears the surfaced error. Operations superseded by a
// newer one for the same target and kind are discarded. It returns how many
// were requeued. An operation leaves the failed list only once it is back in
// the log.
func (s *Scheduler) RetryFailed(ctx context.Context) int {
	failed := s.failed.Operations()

	requeued := 0
	for _, op := range failed {
		op.TargetID = s.ResolveID(op.TargetID)
		if s.log.HasPending(op.TargetID, op.Kind) {
			s.failed.Remove(ctx, op.ID)
			continue
		}
		op.Attempts = 0
		op.NotBefore = nil
		if _, err := s.log.Enqueue(ctx, op); err != nil {
			logger.Warn("scheduler: requeue %s: %v", op.ID, err)
			continue
		}
		s.failed.Remove(ctx, op.ID)
		requeued++
	}
	if len(failed) > 0 && s.failed.Len() == 0 {
		s.status.ClearError()
	}
	return requeued
}

// ResolveID returns the remote ID of a placeholder board once its create has
// succeeded, and id unchanged otherwise.
func (s *Scheduler) ResolveID(id string) string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if remote, ok := s.resolved[id]; ok {
		return remote
	}
	return id
}

func (s *Scheduler) addFailed(ctx context.Context, op domain.Operation) {
	if _, err := s.failed.Enqueue(ctx, op); err != nil {
		logger.Warn("scheduler: keep failed %s: %v", op.ID, err)
	}
}

func (s *Scheduler) setResolved(ctx context.Context, placeholder, remoteID string) {
	s.stateMu.Lock()
	s.resolved[placeholder] = remoteID
	s.stateMu.Unlock()
	s.failed.Retarget(ctx, placeholder, remoteID)

	s.mu.Lock()
	fn := s.onResolve
	s.mu.Unlock()
	if fn != nil {
		fn(placeholder, remoteID)
	}
}

// DiscardFailed forgets failed operations of a deleted board.
func (s *Scheduler) DiscardFailed(ctx context.Context, targetID string) {
	s.failed.RemoveByTarget(ctx, targetID)
}
