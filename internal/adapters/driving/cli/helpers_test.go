package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockEngine implements driving.SyncEngine for testing.
type mockEngine struct {
	status   domain.SyncStatus
	pending  []domain.Operation
	failed   []domain.Operation
	createID string
	err       error
	flushErr  error
	unchanged bool

	created  []string
	snapshot domain.Snapshot
	renamed  map[string]string
	deleted  []string
	updates  []string
	active   string
	flushes  int
	retries  int
	subs     []func(domain.SyncStatus)
	started  chan struct{}

	mu sync.Mutex
}

func newMockEngine() *mockEngine {
	return &mockEngine{renamed: map[string]string{}, started: make(chan struct{}, 1)}
}

func (m *mockEngine) Start(ctx context.Context) error {
	select {
	case m.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockEngine) Shutdown(context.Context) error { return nil }

func (m *mockEngine) QueueUpdate(boardID string, snapshot domain.Snapshot) error {
	_, err := m.SubmitUpdate(boardID, snapshot)
	return err
}

func (m *mockEngine) SubmitUpdate(boardID string, _ domain.Snapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.unchanged {
		return false, nil
	}
	m.updates = append(m.updates, boardID)
	return true, nil
}

func (m *mockEngine) queued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.updates...)
}

func (m *mockEngine) SetActiveDocument(_ context.Context, boardID string) error {
	m.active = boardID
	return m.err
}

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

func (m *mockEngine) HasUnsavedChanges(string) bool { return false }
func (m *mockEngine) Status() domain.SyncStatus    { return m.status }

func (m *mockEngine) OnStatusChange(fn func(domain.SyncStatus)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	return func() {}
}

func (m *mockEngine) publish(s domain.SyncStatus) {
	m.mu.Lock()
	subs := append(([]func(domain.SyncStatus))(nil), m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (m *mockEngine) PendingOperations() []domain.Operation { return m.pending }
func (m *mockEngine) FailedOperations() []domain.Operation  { return m.failed }
func (m *mockEngine) RetryFailed(context.Context) int {
	m.retries++
	n := len(m.failed)
	m.failed = nil
	return n
}
func (m *mockEngine) ResolveID(id string) string            { return id }

// mockHistory implements driving.PassHistoryService for testing.
type mockHistory struct {
	passes []domain.PassResult
	limit  int
	err    error
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]domain.PassResult, error) {
	m.limit = limit
	return m.passes, m.err
}

// withServices swaps the package services for the duration of a test.
func withServices(t *testing.T, engine driving.SyncEngine, history driving.PassHistoryService, settings driving.SettingsService) {
	t.Helper()
	oldEngine, oldHistory, oldSettings, oldBootstrap := syncEngine, historyService, settingsService, bootstrap
	syncEngine, historyService, settingsService, bootstrap = engine, history, settings, nil
	t.Cleanup(func() {
		syncEngine, historyService, settingsService, bootstrap = oldEngine, oldHistory, oldSettings, oldBootstrap
	})
}

// runCommand executes the root command with args and returns its output.
// Flag values are reset afterwards so tests stay independent.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
