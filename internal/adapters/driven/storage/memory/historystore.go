package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// Ensure PassHistoryStore implements the interface.
var _ driven.PassHistoryStore = (*PassHistoryStore)(nil)

// PassHistoryStore is an in-memory implementation of driven.PassHistoryStore.
type PassHistoryStore struct {
	mu      sync.RWMutex
	results []domain.PassResult
}

// NewPassHistoryStore creates a new in-memory pass history store.
func NewPassHistoryStore() *PassHistoryStore {
	return &PassHistoryStore{}
}

// RecordPass logs the outcome of a drain pass.
func (s *PassHistoryStore) RecordPass(_ context.Context, result *domain.PassResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

// ListPasses returns recent results for a scope, most recent first.
func (s *PassHistoryStore) ListPasses(_ context.Context, scope string, limit int) ([]domain.PassResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PassResult
	for _, r := range s.results {
		if r.Scope == scope {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PruneHistory keeps the most recent 'keep' results per scope.
func (s *PassHistoryStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byScope := make(map[string][]domain.PassResult)
	for _, r := range s.results {
		byScope[r.Scope] = append(byScope[r.Scope], r)
	}

	kept := make([]domain.PassResult, 0, len(s.results))
	for _, rs := range byScope {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].StartedAt.After(rs[j].StartedAt) })
		if len(rs) > keep {
			rs = rs[:keep]
		}
		kept = append(kept, rs...)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].StartedAt.Before(kept[j].StartedAt) })
	s.results = kept
	return nil
}
