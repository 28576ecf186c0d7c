package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// drain applies ops, the log as it stood when the pass began, in order.
// Operations enqueued during the pass are left for the next one. Each
// operation is re-read from the log before it is sent, so one replaced or
// removed since the pass began is skipped and one retargeted by an earlier
// create is sent to its remote ID.
func (s *Scheduler) drain(
	ctx context.Context,
	ops []domain.Operation,
	trigger domain.PassTrigger,
	force bool,
) (domain.PassResult, error) {
	result := domain.PassResult{
		ID:        s.newID(),
		Scope:     s.config.Scope,
		Trigger:   trigger,
		StartedAt: s.clock.Now(),
	}

	var failures []error
	for _, queued := range ops {
		op, ok := s.log.Get(queued.ID)
		if !ok {
			result.Skipped++
			continue
		}
		if op.Kind != domain.OpCreate && domain.IsPlaceholderID(op.TargetID) &&
			s.log.HasPending(op.TargetID, domain.OpCreate) {
			// Waits for its create to land
			result.Skipped++
			continue
		}
		if !force && !op.Ready(s.clock.Now()) {
			result.Skipped++
			continue
		}

		result.Attempted++
		err := s.apply(ctx, op)
		if err == nil {
			result.Succeeded++
			s.status.RecordSuccess(s.clock.Now())
			continue
		}

		dropped, failure := s.fail(ctx, op, err)
		if dropped {
			result.Dropped++
		} else {
			result.Failed++
		}
		failures = append(failures, failure)
	}

	if len(failures) == 0 {
		return result, nil
	}
	joined := errors.Join(failures...)
	result.Error = joined.Error()
	return result, fmt.Errorf("%w: %w", domain.ErrFlushFailed, joined)
}

// apply sends op to the gateway and, on success, removes it from the log.
func (s *Scheduler) apply(ctx context.Context, op domain.Operation) error {
	switch op.Kind {
	case domain.OpUpdate:
		p, err := op.UpdatePayload()
		if err != nil {
			return err
		}
		if domain.IsPlaceholderID(op.TargetID) {
			return fmt.Errorf("%w: board %s was never created", domain.ErrNotFound, op.TargetID)
		}
		if err := s.gateway.Update(ctx, domain.UpdateRequest{TargetID: op.TargetID, Snapshot: p.Snapshot}); err != nil {
			return err
		}
		s.log.Remove(ctx, op.ID)
		s.applied.Record(ctx, op.TargetID, p.Snapshot)

	case domain.OpRename:
		p, err := op.RenamePayload()
		if err != nil {
			return err
		}
		if domain.IsPlaceholderID(op.TargetID) {
			return fmt.Errorf("%w: board %s was never created", domain.ErrNotFound, op.TargetID)
		}
		if err := s.gateway.Update(ctx, domain.UpdateRequest{TargetID: op.TargetID, Name: &p.Name}); err != nil {
			return err
		}
		s.log.Remove(ctx, op.ID)

	case domain.OpDelete:
		if !domain.IsPlaceholderID(op.TargetID) {
			if err := s.gateway.Delete(ctx, op.TargetID); err != nil {
				return err
			}
		}
		s.log.Remove(ctx, op.ID)
		s.applied.Forget(ctx, op.TargetID)

	case domain.OpCreate:
		return s.applyCreate(ctx, op)

	default:
		return fmt.Errorf("%w: unknown operation kind %q", domain.ErrInvalidInput, op.Kind)
	}
	return nil
}

func (s *Scheduler) applyCreate(ctx context.Context, op domain.Operation) error {
	p, err := op.CreatePayload()
	if err != nil {
		return err
	}
	placeholder := op.TargetID
	remoteID, err := s.gateway.Create(ctx, domain.CreateRequest{
		Scope:         s.config.Scope,
		CorrelationID: placeholder,
		Name:          p.Name,
		Snapshot:      p.Snapshot,
	})
	if err != nil {
		return err
	}

	if !p.Snapshot.IsEmpty() {
		s.applied.Record(ctx, remoteID, p.Snapshot)
	}
	s.setResolved(ctx, placeholder, remoteID)
	if s.log.ResolveCreate(ctx, op.ID, placeholder, remoteID) {
		logger.Debug("scheduler: created %s as %s", placeholder, remoteID)
		return nil
	}

	// Deleted locally while the create was in flight
	del, err := domain.NewDeleteOperation(s.newID(), remoteID, s.clock.Now())
	if err != nil {
		return err
	}
	if _, err := s.log.Enqueue(ctx, del); err != nil {
		return err
	}
	logger.Info("scheduler: %s was deleted during its create, queued delete of %s", placeholder, remoteID)
	return nil
}

// fail records a failed attempt. Once the attempt cap is reached the
// operation leaves the log, joins the failed list and its error is surfaced
// in the status.
func (s *Scheduler) fail(ctx context.Context, op domain.Operation, cause error) (bool, error) {
	now := s.clock.Now()
	attempts, ok := s.log.RecordFailure(ctx, op.ID, s.backoff.NotBefore(now, op.Attempts+1))
	if !ok {
		// Replaced or removed during the call; its successor starts afresh
		return false, fmt.Errorf("%s %s: %w", op.Kind, op.TargetID, cause)
	}

	if attempts < s.config.MaxAttempts {
		logger.Info("scheduler: %s %s failed (attempt %d/%d): %v",
			op.Kind, op.TargetID, attempts, s.config.MaxAttempts, cause)
		return false, fmt.Errorf("%s %s: %w", op.Kind, op.TargetID, cause)
	}

	s.log.Remove(ctx, op.ID)
	op.Attempts = attempts
	op.NotBefore = nil
	s.addFailed(ctx, op)

	msg := fmt.Sprintf("%s of board %s failed after %d attempts: %v", op.Kind, op.TargetID, attempts, cause)
	s.status.RecordError(msg)
	logger.Warn("scheduler: %s", msg)
	return true, fmt.Errorf("%s %s: %w: %w", op.Kind, op.TargetID, domain.ErrRetriesExhausted, cause)
}
