package driving

import (
	"context"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// PassHistoryService exposes recorded drain passes for the engine's scope.
type PassHistoryService interface {
	// Recent returns up to limit passes, most recent first.
	// A limit of zero or less uses the service default.
	Recent(ctx context.Context, limit int) ([]domain.PassResult, error)
}
