package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/testutil"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func testConfig() domain.EngineConfig {
	cfg := domain.DefaultEngineConfig()
	cfg.Scope = "ws-1"
	return cfg
}

func snap(t *testing.T, raw string) domain.Snapshot {
	t.Helper()
	s, err := domain.ParseSnapshot([]byte(raw))
	require.NoError(t, err)
	return s
}

func updateOp(t *testing.T, id, target, raw string) domain.Operation {
	t.Helper()
	op, err := domain.NewUpdateOperation(id, target, snap(t, raw), t0)
	require.NoError(t, err)
	return op
}

func snapshotOf(t *testing.T, op domain.Operation) string {
	t.Helper()
	p, err := op.UpdatePayload()
	require.NoError(t, err)
	return string(p.Snapshot)
}

// --- Mock implementations ---

// recordingMetrics implements driven.SyncMetrics for testing.
type recordingMetrics struct {
	mu       sync.Mutex
	enqueued map[domain.OperationKind]int
	replaced int
	passes   []domain.PassResult
	depth    int
}

var _ driven.SyncMetrics = (*recordingMetrics)(nil)

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{enqueued: make(map[domain.OperationKind]int)}
}

func (m *recordingMetrics) RecordEnqueue(_ context.Context, kind domain.OperationKind, replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued[kind]++
	if replaced {
		m.replaced++
	}
}

func (m *recordingMetrics) RecordPass(_ context.Context, result domain.PassResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes = append(m.passes, result)
}

func (m *recordingMetrics) RecordQueueDepth(_ context.Context, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth = depth
}

func (m *recordingMetrics) Enqueued(kind domain.OperationKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueued[kind]
}

func (m *recordingMetrics) Passes() []domain.PassResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PassResult(nil), m.passes...)
}

// statusRecorder collects every published status.
type statusRecorder struct {
	mu   sync.Mutex
	seen []domain.SyncStatus
}

func (r *statusRecorder) record(s domain.SyncStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *statusRecorder) all() []domain.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SyncStatus(nil), r.seen...)
}

// --- Engine harness ---

type harness struct {
	engine  *SyncEngine
	gateway *testutil.FakeGateway
	clock   *testutil.ManualClock
	opStore *memory.OperationLogStore
	applied *memory.AppliedSnapshotStore
	history *memory.PassHistoryStore
	metrics *recordingMetrics
	ids     *testutil.SequentialIDs
	config  domain.EngineConfig
}

func newHarness(t *testing.T, configure ...func(*domain.EngineConfig)) *harness {
	t.Helper()
	cfg := testConfig()
	for _, fn := range configure {
		fn(&cfg)
	}
	h := &harness{
		gateway: testutil.NewFakeGateway(),
		clock:   testutil.NewManualClock(t0),
		opStore: memory.NewOperationLogStore(),
		applied: memory.NewAppliedSnapshotStore(),
		history: memory.NewPassHistoryStore(),
		metrics: newRecordingMetrics(),
		ids:     testutil.NewSequentialIDs("op"),
		config:  cfg,
	}
	h.engine = h.newEngine(t)
	return h
}

func (h *harness) newEngine(t *testing.T) *SyncEngine {
	t.Helper()
	e, err := NewSyncEngine(context.Background(), h.config, EngineDeps{
		Gateway:        h.gateway,
		OperationStore: h.opStore,
		Clock:          h.clock,
		AppliedStore:   h.applied,
		History:        h.history,
		Metrics:        h.metrics,
		NewID:          h.ids.Next,
	})
	require.NoError(t, err)
	return e
}

// restart simulates a process restart: a fresh engine over the same stores
// and remote.
func (h *harness) restart(t *testing.T) {
	t.Helper()
	h.engine = h.newEngine(t)
}

// settle waits for background passes started by the engine.
func (h *harness) settle() {
	h.engine.scheduler.wg.Wait()
}

// debounce lets the quiet period elapse.
func (h *harness) debounce() {
	h.clock.Advance(h.config.DebounceDelay)
}
