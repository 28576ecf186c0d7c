package driven

import (
	"context"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// RemoteGateway applies operations to the authoritative remote board store.
//
// Every call may be retried after an ambiguous failure, so implementations
// must make each one idempotent:
//
//   - Create with a CorrelationID the store has already seen returns the
//     board created the first time.
//   - Update replaces the whole board, so re-applying it is harmless.
//   - Delete of a board that no longer exists succeeds.
type RemoteGateway interface {
	// Create creates a board and returns its remote ID.
	Create(ctx context.Context, req domain.CreateRequest) (string, error)

	// Update replaces a board's content, its name, or both.
	Update(ctx context.Context, req domain.UpdateRequest) error

	// Delete removes a board.
	Delete(ctx context.Context, targetID string) error
}
