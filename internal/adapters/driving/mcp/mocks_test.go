package mcp

import (
	"context"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// mockEngine is a mock implementation of driving.SyncEngine.
type mockEngine struct {
	status   domain.SyncStatus
	pending  []domain.Operation
	failed   []domain.Operation
	unsaved  map[string]bool
	resolved map[string]string

	createID  string
	err       error
	flushErr  error
	requeued  int
	unchanged bool

	updates  map[string]domain.Snapshot
	created  []string
	renamed  map[string]string
	deleted  []string
	flushes  int
	snapshot domain.Snapshot
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		unsaved:  map[string]bool{},
		resolved: map[string]string{},
		updates:  map[string]domain.Snapshot{},
		renamed:  map[string]string{},
	}
}

func (m *mockEngine) Start(context.Context) error    { return m.err }
func (m *mockEngine) Shutdown(context.Context) error { return m.err }

func (m *mockEngine) QueueUpdate(boardID string, snapshot domain.Snapshot) error {
	_, err := m.SubmitUpdate(boardID, snapshot)
	return err
}

func (m *mockEngine) SubmitUpdate(boardID string, snapshot domain.Snapshot) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.unchanged {
		return false, nil
	}
	m.updates[boardID] = snapshot
	return true, nil
}

func (m *mockEngine) SetActiveDocument(context.Context, string) error { return m.err }

func (m *mockEngine) ForceFlush(context.Context) error {
	m.flushes++
	return m.flushErr
}

func (m *mockEngine) Create(_ context.Context, name string, snapshot domain.Snapshot) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.created = append(m.created, name)
	m.snapshot = snapshot
	return m.createID, nil
}

func (m *mockEngine) Delete(_ context.Context, boardID string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, boardID)
	return nil
}

func (m *mockEngine) Rename(_ context.Context, boardID, name string) error {
	if m.err != nil {
		return m.err
	}
	m.renamed[boardID] = name
	return nil
}

func (m *mockEngine) HasUnsavedChanges(boardID string) bool { return m.unsaved[boardID] }
func (m *mockEngine) Status() domain.SyncStatus            { return m.status }

func (m *mockEngine) OnStatusChange(func(domain.SyncStatus)) func() { return func() {} }

func (m *mockEngine) PendingOperations() []domain.Operation { return m.pending }
func (m *mockEngine) FailedOperations() []domain.Operation  { return m.failed }
func (m *mockEngine) RetryFailed(context.Context) int       { return m.requeued }

func (m *mockEngine) ResolveID(boardID string) string {
	if id, ok := m.resolved[boardID]; ok {
		return id
	}
	return boardID
}

// mockHistory is a mock implementation of driving.PassHistoryService.
type mockHistory struct {
	passes []domain.PassResult
	limit  int
	err    error
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]domain.PassResult, error) {
	m.limit = limit
	return m.passes, m.err
}
