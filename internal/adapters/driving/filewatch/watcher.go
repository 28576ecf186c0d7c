// Package filewatch turns writes to a board snapshot file into engine edits.
package filewatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// EditSink receives snapshots read from the watched file. SubmitUpdate
// reports false when the snapshot changed nothing.
type EditSink interface {
	SubmitUpdate(boardID string, snapshot domain.Snapshot) (bool, error)
}

// Watcher watches one snapshot file. The parent directory is watched rather
// than the file itself so that editors which save by rename are followed.
type Watcher struct {
	path    string
	boardID string
	sink    EditSink
	log     *zap.Logger

	// OnEdit, when set, is called after each snapshot the sink accepts.
	OnEdit func(domain.Snapshot)
}

// NewWatcher creates a watcher feeding edits of path to boardID.
func NewWatcher(path, boardID string, sink EditSink) (*Watcher, error) {
	if boardID == "" {
		return nil, fmt.Errorf("%w: board ID is required", domain.ErrInvalidInput)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: edit sink is required", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	return &Watcher{
		path:    abs,
		boardID: boardID,
		sink:    sink,
		log:     logger.Named("filewatch"),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run submits the file's current content, then every change, until ctx is
// cancelled. Unreadable or invalid content is logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to add watch: %w", err)
	}

	if _, err := os.Stat(w.path); err == nil {
		w.submit()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.submit()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) submit() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Debug("read failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	snapshot, err := domain.ParseSnapshot(data)
	if err != nil {
		// Editors often truncate before writing; the follow-up write retries.
		w.log.Debug("skipping invalid snapshot", zap.String("path", w.path), zap.Error(err))
		return
	}
	accepted, err := w.sink.SubmitUpdate(w.boardID, snapshot)
	if err != nil {
		if errors.Is(err, domain.ErrEngineClosed) {
			return
		}
		w.log.Warn("queueing edit failed", zap.String("board", w.boardID), zap.Error(err))
		return
	}
	if !accepted {
		w.log.Debug("edit matches synced state", zap.String("board", w.boardID))
		return
	}
	if w.OnEdit != nil {
		w.OnEdit(snapshot)
	}
}
