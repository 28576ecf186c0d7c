package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// Ensure OperationLogStore implements the interface.
var _ driven.OperationLogStore = (*OperationLogStore)(nil)

// OperationLogStore is an in-memory implementation of driven.OperationLogStore.
// Sharing one store between two engines simulates a process restart.
type OperationLogStore struct {
	mu      sync.RWMutex
	logs    map[string][]byte
	saves   int
	saveErr error
	loadErr error
}

// NewOperationLogStore creates a new in-memory operation log store.
func NewOperationLogStore() *OperationLogStore {
	return &OperationLogStore{
		logs: make(map[string][]byte),
	}
}

// LoadOperationLog returns the bytes last saved under namespace.
func (s *OperationLogStore) LoadOperationLog(_ context.Context, namespace string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.logs[namespace]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// SaveOperationLog replaces the log stored under namespace.
func (s *OperationLogStore) SaveOperationLog(_ context.Context, namespace string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.logs[namespace] = stored
	s.saves++
	return nil
}

// FailSaves makes every later save return err. A nil err restores saving.
func (s *OperationLogStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// FailLoads makes every later load return err.
func (s *OperationLogStore) FailLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// Raw returns the stored bytes for namespace.
func (s *OperationLogStore) Raw(namespace string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs[namespace]
}

// SaveCount returns how many saves succeeded.
func (s *OperationLogStore) SaveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
