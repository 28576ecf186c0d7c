package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

func TestStatusBroadcaster_NotifiesOnlyOnChange(t *testing.T) {
	var pending atomic.Bool
	b := NewStatusBroadcaster(pending.Load)
	rec := &statusRecorder{}
	b.Subscribe(rec.record)

	b.Refresh()
	assert.Empty(t, rec.all(), "nothing changed")

	pending.Store(true)
	b.Refresh()
	b.Refresh()
	require.Len(t, rec.all(), 1)
	assert.True(t, rec.all()[0].PendingChanges)

	b.BeginPass()
	b.RecordSuccess(t0)
	b.EndPass()
	seen := rec.all()
	require.Len(t, seen, 4)
	assert.True(t, seen[1].IsSyncing)
	assert.Equal(t, t0, seen[2].LastSyncTime)
	assert.False(t, seen[3].IsSyncing)
}

func TestStatusBroadcaster_LastSyncTimeNeverMovesBack(t *testing.T) {
	b := NewStatusBroadcaster(nil)

	b.RecordSuccess(t0)
	b.RecordSuccess(t0.Add(-1))
	assert.Equal(t, t0, b.Status().LastSyncTime)
}

func TestStatusBroadcaster_ErrorLifecycle(t *testing.T) {
	b := NewStatusBroadcaster(nil)

	b.RecordError("update of board c1 failed after 3 attempts")
	assert.True(t, b.Status().HasError())

	b.BeginPass()
	assert.False(t, b.Status().HasError(), "a new pass clears the error")
	b.EndPass()

	b.RecordError("boom")
	b.ClearError()
	assert.Equal(t, "", b.Status().Error)
}

func TestStatusBroadcaster_DisposerIsIdempotent(t *testing.T) {
	b := NewStatusBroadcaster(nil)
	var first, second int
	dispose := b.Subscribe(func(domain.SyncStatus) { first++ })
	b.Subscribe(func(domain.SyncStatus) { second++ })
	require.Equal(t, 2, b.SubscriberCount())

	dispose()
	dispose()
	assert.Equal(t, 1, b.SubscriberCount())

	b.RecordError("x")
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestStatusBroadcaster_SubscriberMayReadStatus(t *testing.T) {
	b := NewStatusBroadcaster(nil)
	var got domain.SyncStatus
	b.Subscribe(func(domain.SyncStatus) { got = b.Status() })

	b.BeginPass()
	assert.True(t, got.IsSyncing)
}

func TestStatusBroadcaster_SubscriberMayUnsubscribeDuringNotify(t *testing.T) {
	b := NewStatusBroadcaster(nil)
	var calls int
	var dispose func()
	dispose = b.Subscribe(func(domain.SyncStatus) {
		calls++
		dispose()
	})
	var other int
	b.Subscribe(func(domain.SyncStatus) { other++ })

	b.BeginPass()
	b.EndPass()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestStatusBroadcaster_Close(t *testing.T) {
	b := NewStatusBroadcaster(nil)
	var calls int
	b.Subscribe(func(domain.SyncStatus) { calls++ })

	b.Close()
	assert.Equal(t, 0, b.SubscriberCount())

	b.RecordError("after close")
	assert.Equal(t, 0, calls)
	assert.Equal(t, "after close", b.Status().Error)

	dispose := b.Subscribe(func(domain.SyncStatus) { calls++ })
	dispose()
	b.ClearError()
	assert.Equal(t, 0, calls)
}

func TestStatusBroadcaster_StalePendingSampleNeverWins(t *testing.T) {
	var pending, gate atomic.Bool
	entered := make(chan struct{})
	release := make(chan struct{})
	b := NewStatusBroadcaster(func() bool {
		v := pending.Load()
		if gate.CompareAndSwap(true, false) {
			close(entered)
			<-release
		}
		return v
	})
	rec := &statusRecorder{}
	b.Subscribe(rec.record)

	// The first refresh samples "pending" and stalls before committing
	pending.Store(true)
	gate.Store(true)
	first := make(chan struct{})
	go func() {
		defer close(first)
		b.Refresh()
	}()
	<-entered

	// The log drains meanwhile and a second refresh starts
	pending.Store(false)
	second := make(chan struct{})
	go func() {
		defer close(second)
		b.Refresh()
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-first
	<-second

	assert.False(t, b.Status().PendingChanges)
	// The intermediate state may be coalesced away, but never published last
	if seen := rec.all(); len(seen) > 0 {
		assert.False(t, seen[len(seen)-1].PendingChanges)
	}
}

func TestStatusBroadcaster_ChangesMadeBySubscriberArriveInOrder(t *testing.T) {
	b := NewStatusBroadcaster(nil)
	rec := &statusRecorder{}
	b.Subscribe(func(s domain.SyncStatus) {
		rec.record(s)
		if s.IsSyncing {
			b.EndPass()
		}
	})

	b.BeginPass()
	seen := rec.all()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsSyncing)
	assert.False(t, seen[1].IsSyncing)
	assert.False(t, b.Status().IsSyncing)
}
