package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// Ensure AppliedSnapshotStore implements the interface.
var _ driven.AppliedSnapshotStore = (*AppliedSnapshotStore)(nil)

// AppliedSnapshotStore is an in-memory implementation of driven.AppliedSnapshotStore.
type AppliedSnapshotStore struct {
	mu     sync.RWMutex
	prints map[string]map[string]string
}

// NewAppliedSnapshotStore creates a new in-memory applied snapshot store.
func NewAppliedSnapshotStore() *AppliedSnapshotStore {
	return &AppliedSnapshotStore{
		prints: make(map[string]map[string]string),
	}
}

// LoadApplied returns every board fingerprint saved under namespace.
func (s *AppliedSnapshotStore) LoadApplied(_ context.Context, namespace string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.prints[namespace]))
	for k, v := range s.prints[namespace] {
		out[k] = v
	}
	return out, nil
}

// SaveApplied records the fingerprint for a board.
func (s *AppliedSnapshotStore) SaveApplied(_ context.Context, namespace, boardID, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.prints[namespace]
	if !ok {
		ns = make(map[string]string)
		s.prints[namespace] = ns
	}
	ns[boardID] = fingerprint
	return nil
}

// DeleteApplied forgets a board.
func (s *AppliedSnapshotStore) DeleteApplied(_ context.Context, namespace, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prints[namespace], boardID)
	return nil
}
