package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
)

// Ensure PassHistoryService implements the interface.
var _ driving.PassHistoryService = (*PassHistoryService)(nil)

// DefaultHistoryLimit is the number of passes Recent returns without a limit.
const DefaultHistoryLimit = 20

// PassHistoryService reads drain pass results for one scope.
type PassHistoryService struct {
	store driven.PassHistoryStore
	scope string
}

// NewPassHistoryService creates a history service for scope. A nil store
// yields an empty history.
func NewPassHistoryService(store driven.PassHistoryStore, scope string) *PassHistoryService {
	return &PassHistoryService{store: store, scope: scope}
}

// Recent returns up to limit passes, most recent first.
func (s *PassHistoryService) Recent(ctx context.Context, limit int) ([]domain.PassResult, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	results, err := s.store.ListPasses(ctx, s.scope, limit)
	if err != nil {
		return nil, fmt.Errorf("listing passes for %s: %w", s.scope, err)
	}
	return results, nil
}
