package domain

import "errors"

// Domain errors represent sync engine failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a drain pass is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrEngineClosed indicates the engine has been shut down.
	ErrEngineClosed = errors.New("sync engine closed")

	// Remote Errors.

	// ErrGatewayUnavailable indicates the remote store could not be reached
	// or rejected the request as temporarily unavailable.
	ErrGatewayUnavailable = errors.New("remote gateway unavailable")

	// ErrRetriesExhausted indicates an operation failed on every allowed attempt
	// and was removed from the retry set.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrFlushFailed indicates a forced flush finished with failed operations.
	ErrFlushFailed = errors.New("flush failed")
)
