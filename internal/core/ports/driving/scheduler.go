package driving

import "context"

// Scheduler runs drain passes over the operation log.
type Scheduler interface {
	// Start begins running periodic passes.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler and waits for in-flight passes.
	Stop() error

	// Trigger runs a pass now unless one is already running.
	// Reports whether a pass ran.
	Trigger(ctx context.Context) bool

	// Drain waits for any running pass, then runs a forced pass that ignores
	// backoff and returns its failures.
	Drain(ctx context.Context) error
}
