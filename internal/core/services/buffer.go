package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// PendingEdit is the latest buffered snapshot of one board.
type PendingEdit struct {
	BoardID  string
	Snapshot domain.Snapshot
}

// MutationBuffer coalesces rapid edits into at most one pending snapshot per
// board and promotes them once a quiet period passes without further edits.
//
// A single timer is shared by all boards; every accepted edit restarts it.
// Promotion order is the order in which boards first received an edit.
type MutationBuffer struct {
	clock   driven.Clock
	delay   time.Duration
	applied *AppliedCache
	queued  func(boardID string) bool
	promote func([]PendingEdit)
	changed func()

	mu      sync.Mutex
	pending map[string]domain.Snapshot
	order   []string
	active  string
	timer   driven.Timer
	gen     uint64
}

// NewMutationBuffer creates a buffer. promote receives flushed edits and
// changed is called after any change to the pending set; both run without
// the buffer's lock held. applied may be nil to disable the no-op check.
// queued reports whether an update for a board is already in the operation
// log; edits to such a board are never short-circuited.
func NewMutationBuffer(
	clock driven.Clock,
	delay time.Duration,
	applied *AppliedCache,
	queued func(boardID string) bool,
	promote func([]PendingEdit),
	changed func(),
) *MutationBuffer {
	if changed == nil {
		changed = func() {}
	}
	if queued == nil {
		queued = func(string) bool { return false }
	}
	return &MutationBuffer{
		clock:   clock,
		delay:   delay,
		applied: applied,
		queued:  queued,
		promote: promote,
		changed: changed,
		pending: make(map[string]domain.Snapshot),
	}
}

// Submit records snapshot as the latest state of boardID and restarts the
// quiet-period timer. An edit identical to the last applied snapshot is
// ignored unless the board already has a pending edit or queued update, so
// reverting to the applied state is never lost. Submit reports whether the
// edit was accepted.
func (b *MutationBuffer) Submit(boardID string, snapshot domain.Snapshot) bool {
	queued := b.queued(boardID)

	b.mu.Lock()
	_, has := b.pending[boardID]
	if !has && !queued && b.applied != nil && b.applied.Matches(boardID, snapshot) {
		b.mu.Unlock()
		return false
	}
	if !has {
		b.order = append(b.order, boardID)
	}
	b.pending[boardID] = snapshot
	if b.active == "" {
		b.active = boardID
	}
	b.restartTimerLocked()
	b.mu.Unlock()

	b.changed()
	return true
}

// SwitchActive makes boardID the active board. If the previously active
// board has a pending edit it is promoted first, bypassing the timer.
// An empty boardID means no board is active.
func (b *MutationBuffer) SwitchActive(boardID string) bool {
	b.mu.Lock()
	prev := b.active
	var edits []PendingEdit
	if prev != "" && prev != boardID {
		if snap, ok := b.pending[prev]; ok {
			edits = []PendingEdit{{BoardID: prev, Snapshot: snap}}
			b.removeLocked(prev)
		}
	}
	b.mu.Unlock()

	if len(edits) > 0 {
		b.promote(edits)
	}

	b.mu.Lock()
	b.active = boardID
	b.mu.Unlock()

	if len(edits) > 0 {
		b.changed()
	}
	return len(edits) > 0
}

// Flush cancels the timer and promotes every pending edit.
func (b *MutationBuffer) Flush() []PendingEdit {
	b.mu.Lock()
	b.stopTimerLocked()
	edits := b.takeAllLocked()
	b.mu.Unlock()

	if len(edits) > 0 {
		b.promote(edits)
		b.changed()
	}
	return edits
}

// Discard drops the pending edit of boardID without promoting it.
func (b *MutationBuffer) Discard(boardID string) bool {
	b.mu.Lock()
	_, ok := b.pending[boardID]
	if ok {
		b.removeLocked(boardID)
	}
	if b.active == boardID {
		b.active = ""
	}
	b.mu.Unlock()

	if ok {
		b.changed()
	}
	return ok
}

// Retarget moves a pending edit and the active pointer from one board ID to
// another, used once a placeholder board receives its remote ID.
func (b *MutationBuffer) Retarget(from, to string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if snap, ok := b.pending[from]; ok {
		delete(b.pending, from)
		b.pending[to] = snap
		for i, id := range b.order {
			if id == from {
				b.order[i] = to
			}
		}
	}
	if b.active == from {
		b.active = to
	}
}

// Stop cancels the timer without promoting anything.
func (b *MutationBuffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
}

// HasPending reports whether boardID has a buffered edit.
func (b *MutationBuffer) HasPending(boardID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[boardID]
	return ok
}

// PendingCount returns the number of boards with buffered edits.
func (b *MutationBuffer) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Active returns the active board ID.
func (b *MutationBuffer) Active() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *MutationBuffer) restartTimerLocked() {
	b.stopTimerLocked()
	gen := b.gen
	b.timer = b.clock.AfterFunc(b.delay, func() { b.fire(gen) })
}

func (b *MutationBuffer) stopTimerLocked() {
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// fire runs when the quiet period elapses. A stale generation means the
// timer was reset or stopped after it had already started firing.
func (b *MutationBuffer) fire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	edits := b.takeAllLocked()
	b.mu.Unlock()

	if len(edits) > 0 {
		b.promote(edits)
		b.changed()
	}
}

func (b *MutationBuffer) takeAllLocked() []PendingEdit {
	if len(b.order) == 0 {
		return nil
	}
	edits := make([]PendingEdit, 0, len(b.order))
	for _, id := range b.order {
		edits = append(edits, PendingEdit{BoardID: id, Snapshot: b.pending[id]})
	}
	b.pending = make(map[string]domain.Snapshot)
	b.order = nil
	return edits
}

func (b *MutationBuffer) removeLocked(boardID string) {
	delete(b.pending, boardID)
	for i, id := range b.order {
		if id == boardID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if len(b.pending) == 0 {
		b.stopTimerLocked()
	}
}
