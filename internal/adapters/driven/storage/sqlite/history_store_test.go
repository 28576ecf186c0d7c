package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// ==================== PassHistoryStore Tests ====================

func passAt(scope string, n int, started time.Time) *domain.PassResult {
	return &domain.PassResult{
		ID:        fmt.Sprintf("pass-%d", n),
		Scope:     scope,
		Trigger:   domain.TriggerPeriodic,
		StartedAt: started,
		EndedAt:   started.Add(150 * time.Millisecond),
		Attempted: 2,
		Succeeded: 1,
		Failed:    1,
		Error:     "update c1: offline",
	}
}

func TestPassHistoryStore_RecordAndList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	history := store.PassHistoryStore()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, history.RecordPass(ctx, passAt("ws-1", i, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, history.RecordPass(ctx, passAt("ws-2", 9, base)))

	results, err := history.ListPasses(ctx, "ws-1", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "pass-2", results[0].ID, "most recent first")
	assert.Equal(t, "pass-0", results[2].ID)

	got := results[0]
	assert.Equal(t, "ws-1", got.Scope)
	assert.Equal(t, domain.TriggerPeriodic, got.Trigger)
	assert.True(t, base.Add(2*time.Second).Equal(got.StartedAt))
	assert.Equal(t, 150*time.Millisecond, got.Duration())
	assert.Equal(t, 2, got.Attempted)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, "update c1: offline", got.Error)

	limited, err := history.ListPasses(ctx, "ws-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := history.ListPasses(ctx, "ws-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPassHistoryStore_RecordNil(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.PassHistoryStore().RecordPass(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPassHistoryStore_EmptyErrorIsStoredAsNull(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	pass := passAt("ws-1", 1, time.Now())
	pass.Error = ""
	require.NoError(t, store.PassHistoryStore().RecordPass(ctx, pass))

	var nulls int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM pass_results WHERE error IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestPassHistoryStore_PruneKeepsMostRecentPerScope(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	history := store.PassHistoryStore()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, history.RecordPass(ctx, passAt("ws-1", i, base.Add(time.Duration(i)*time.Millisecond))))
	}
	for i := range 2 {
		require.NoError(t, history.RecordPass(ctx, passAt("ws-2", 10+i, base.Add(time.Duration(i)*time.Millisecond))))
	}

	require.NoError(t, history.PruneHistory(ctx, 2))

	ws1, err := history.ListPasses(ctx, "ws-1", 0)
	require.NoError(t, err)
	require.Len(t, ws1, 2)
	assert.Equal(t, "pass-4", ws1[0].ID)
	assert.Equal(t, "pass-3", ws1[1].ID)

	ws2, err := history.ListPasses(ctx, "ws-2", 0)
	require.NoError(t, err)
	assert.Len(t, ws2, 2)
}
