package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/adapters/driven/storage/memory"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint(snap(t, `{"v":"A"}`))
	assert.Equal(t, a, Fingerprint(snap(t, `{ "v" : "A" }`)), "snapshots are compacted before hashing")
	assert.NotEqual(t, a, Fingerprint(snap(t, `{"v":"B"}`)))
	assert.False(t, a.IsZero())
}

func TestAppliedCache_RecordAndMatch(t *testing.T) {
	c := NewAppliedCache(context.Background(), nil, testNamespace)

	assert.False(t, c.Matches("c1", snap(t, `{"v":1}`)))
	c.Record(context.Background(), "c1", snap(t, `{"v":1}`))
	assert.True(t, c.Matches("c1", snap(t, `{"v":1}`)))
	assert.False(t, c.Matches("c1", snap(t, `{"v":2}`)))
	assert.False(t, c.Matches("c2", snap(t, `{"v":1}`)))
	assert.Equal(t, 1, c.Len())
}

func TestAppliedCache_SurvivesRestart(t *testing.T) {
	store := memory.NewAppliedSnapshotStore()
	ctx := context.Background()

	c := NewAppliedCache(ctx, store, testNamespace)
	c.Record(ctx, "c1", snap(t, `{"v":1}`))
	c.Record(ctx, "c2", snap(t, `{"v":2}`))
	c.Forget(ctx, "c2")

	reloaded := NewAppliedCache(ctx, store, testNamespace)
	assert.True(t, reloaded.Matches("c1", snap(t, `{"v":1}`)))
	assert.False(t, reloaded.Matches("c2", snap(t, `{"v":2}`)))
	assert.Equal(t, 1, reloaded.Len())
}

func TestAppliedCache_SkipsMalformedFingerprints(t *testing.T) {
	store := memory.NewAppliedSnapshotStore()
	ctx := context.Background()
	require.NoError(t, store.SaveApplied(ctx, testNamespace, "c1", "not-hex"))
	require.NoError(t, store.SaveApplied(ctx, testNamespace, "c2", Fingerprint(snap(t, `{"v":2}`)).String()))

	c := NewAppliedCache(ctx, store, testNamespace)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Matches("c2", snap(t, `{"v":2}`)))
}
