package driven

import (
	"context"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// PassHistoryStore records drain pass results for inspection.
type PassHistoryStore interface {
	// RecordPass logs the outcome of a drain pass.
	RecordPass(ctx context.Context, result *domain.PassResult) error

	// ListPasses returns recent results for a scope.
	// Results are ordered by start time descending (most recent first).
	ListPasses(ctx context.Context, scope string, limit int) ([]domain.PassResult, error)

	// PruneHistory removes old results beyond the retention limit.
	// Keeps the most recent 'keep' results per scope.
	PruneHistory(ctx context.Context, keep int) error
}
