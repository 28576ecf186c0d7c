package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// StatusBroadcaster is the single writer of the engine's SyncStatus.
//
// Components submit intents (begin a pass, record a success or an error)
// and the broadcaster recomputes the status. PendingChanges is always taken
// from hasPending rather than set by callers. Subscribers are called
// synchronously, outside the broadcaster's lock, and only when the status
// actually changed. Notifications follow commit order and the last one a
// subscriber receives is always the current status.
type StatusBroadcaster struct {
	hasPending func() bool

	// commitMu spans the hasPending sample and the commit so an older sample
	// never overwrites a newer one.
	commitMu sync.Mutex

	mu         sync.Mutex
	status     domain.SyncStatus
	delivered  domain.SyncStatus
	delivering bool
	subs       []subscriber
	nextID     uint64
	closed     bool
}

type subscriber struct {
	id uint64
	fn func(domain.SyncStatus)
}

// NewStatusBroadcaster creates a broadcaster. hasPending reports whether any
// buffered edit or queued operation exists; nil means never.
func NewStatusBroadcaster(hasPending func() bool) *StatusBroadcaster {
	if hasPending == nil {
		hasPending = func() bool { return false }
	}
	return &StatusBroadcaster{hasPending: hasPending}
}

// Status returns the current status.
func (b *StatusBroadcaster) Status() domain.SyncStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Subscribe registers fn and returns its disposer. The disposer may be
// called any number of times. Subscribing after Close returns a no-op
// disposer and fn is never called.
func (b *StatusBroadcaster) Subscribe(fn func(domain.SyncStatus)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || fn == nil {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

// SubscriberCount returns the number of registered subscribers.
func (b *StatusBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// BeginPass marks a drain pass as running and clears the last error.
func (b *StatusBroadcaster) BeginPass() {
	b.update(func(s *domain.SyncStatus) {
		s.IsSyncing = true
		s.Error = ""
	})
}

// EndPass marks the drain pass as finished.
func (b *StatusBroadcaster) EndPass() {
	b.update(func(s *domain.SyncStatus) {
		s.IsSyncing = false
	})
}

// RecordSuccess advances the last sync time.
func (b *StatusBroadcaster) RecordSuccess(at time.Time) {
	b.update(func(s *domain.SyncStatus) {
		if at.After(s.LastSyncTime) {
			s.LastSyncTime = at
		}
	})
}

// RecordError surfaces a terminal failure.
func (b *StatusBroadcaster) RecordError(msg string) {
	b.update(func(s *domain.SyncStatus) {
		s.Error = msg
	})
}

// ClearError removes a surfaced failure.
func (b *StatusBroadcaster) ClearError() {
	b.update(func(s *domain.SyncStatus) {
		s.Error = ""
	})
}

// Refresh recomputes PendingChanges.
func (b *StatusBroadcaster) Refresh() {
	b.update(func(*domain.SyncStatus) {})
}

// Close drops every subscriber. Later changes are still tracked but no
// longer published.
func (b *StatusBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
}

func (b *StatusBroadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *StatusBroadcaster) update(apply func(*domain.SyncStatus)) {
	b.commitMu.Lock()
	pending := b.hasPending()
	b.mu.Lock()
	next := b.status
	apply(&next)
	next.PendingChanges = pending
	b.status = next
	b.mu.Unlock()
	b.commitMu.Unlock()

	b.deliver()
}

// deliver publishes the current status until subscribers have seen it. One
// goroutine delivers at a time; changes committed meanwhile, including
// those made by a subscriber, are picked up by its loop.
func (b *StatusBroadcaster) deliver() {
	b.mu.Lock()
	if b.delivering {
		b.mu.Unlock()
		return
	}
	b.delivering = true
	for !b.status.Equal(b.delivered) {
		next := b.status
		b.delivered = next
		subs := b.subs
		b.mu.Unlock()

		for _, s := range subs {
			s.fn(next)
		}
		b.mu.Lock()
	}
	b.delivering = false
	b.mu.Unlock()
}
