package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

type recordingSink struct {
	mu        sync.Mutex
	edits     []string
	calls     int
	err       error
	unchanged bool
}

func (s *recordingSink) SubmitUpdate(boardID string, snapshot domain.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	if s.unchanged {
		return false, nil
	}
	s.edits = append(s.edits, boardID+"="+string(snapshot))
	return true, nil
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.edits...)
}

func (s *recordingSink) contains(edit string) bool {
	for _, e := range s.all() {
		if e == edit {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher("board.json", "", &recordingSink{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewWatcher("board.json", "c1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	w, err := NewWatcher("board.json", "c1", &recordingSink{})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Path()))
}

func TestWatcher_SubmitsInitialContentAndChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ "v": 1 }`), 0600))

	sink := &recordingSink{}
	w, err := NewWatcher(path, "c1", sink)
	require.NoError(t, err)
	startWatcher(t, w)

	require.Eventually(t, func() bool { return sink.contains(`c1={"v":1}`) }, 2*time.Second, 10*time.Millisecond,
		"initial content is compacted and submitted")

	require.NoError(t, os.WriteFile(path, []byte(`{"v":2}`), 0600))
	require.Eventually(t, func() bool { return sink.contains(`c1={"v":2}`) }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_FollowsAtomicSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")

	sink := &recordingSink{}
	w, err := NewWatcher(path, "c1", sink)
	require.NoError(t, err)
	startWatcher(t, w)

	// Give the watch a moment to register before the first event.
	time.Sleep(50 * time.Millisecond)

	tmp := filepath.Join(dir, ".board.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"v":3}`), 0600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return sink.contains(`c1={"v":3}`) }, 2*time.Second, 10*time.Millisecond)
	for _, e := range sink.all() {
		assert.Equal(t, `c1={"v":3}`, e, "temp file events are ignored")
	}
}

func TestWatcher_SkipsInvalidContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	sink := &recordingSink{}
	var edited []domain.Snapshot
	var mu sync.Mutex
	w, err := NewWatcher(path, "c1", sink)
	require.NoError(t, err)
	w.OnEdit = func(s domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		edited = append(edited, s)
	}
	startWatcher(t, w)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0600))

	require.Eventually(t, func() bool { return sink.contains(`c1={"ok":true}`) }, 2*time.Second, 10*time.Millisecond)
	for _, e := range sink.all() {
		assert.Equal(t, `c1={"ok":true}`, e, "invalid content was never submitted")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, edited)
	assert.Equal(t, `{"ok":true}`, string(edited[0]))
}

func TestWatcher_UnacceptedEditIsNotReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))

	sink := &recordingSink{unchanged: true}
	var edits atomic.Int32
	w, err := NewWatcher(path, "c1", sink)
	require.NoError(t, err)
	w.OnEdit = func(domain.Snapshot) { edits.Add(1) }
	startWatcher(t, w)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))

	require.Eventually(t, func() bool { return sink.callCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, edits.Load())
	assert.Empty(t, sink.all())
}

func TestWatcher_StopsWithMissingDirectory(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "board.json"), "c1", &recordingSink{})
	require.NoError(t, err)

	err = w.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add watch")
}
