package domain

import "time"

// PassTrigger records what started a drain pass.
type PassTrigger string

// Pass triggers.
const (
	TriggerPeriodic PassTrigger = "periodic"
	TriggerManual   PassTrigger = "manual"
	TriggerFlush    PassTrigger = "flush"
)

// PassResult represents the outcome of one drain pass over the operation log.
type PassResult struct {
	// ID identifies the pass.
	ID string

	// Scope is the workspace the engine serves.
	Scope string

	// Trigger is what started the pass.
	Trigger PassTrigger

	// StartedAt is when the pass started.
	StartedAt time.Time

	// EndedAt is when the pass completed.
	EndedAt time.Time

	// Attempted counts operations sent to the gateway.
	Attempted int

	// Succeeded counts operations removed after remote success.
	Succeeded int

	// Failed counts operations that failed and stay queued for retry.
	Failed int

	// Dropped counts operations removed after exhausting their attempts.
	Dropped int

	// Skipped counts operations left untouched (backoff or unresolved target).
	Skipped int

	// Error contains the joined failure messages, if any.
	Error string
}

// Success reports whether the pass finished without any failure.
func (r PassResult) Success() bool {
	return r.Failed == 0 && r.Dropped == 0 && r.Error == ""
}

// Duration returns how long the pass ran.
func (r PassResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
