package services

import (
	"context"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// Fingerprint returns the BLAKE3-256 digest of a snapshot.
func Fingerprint(s domain.Snapshot) domain.Fingerprint {
	return domain.Fingerprint(blake3.Sum256(s))
}

// AppliedCache remembers the last snapshot the remote store acknowledged for
// each board, as a fingerprint. The buffer consults it to ignore edits that
// would rewrite what the remote already holds.
type AppliedCache struct {
	store     driven.AppliedSnapshotStore
	namespace string

	mu     sync.RWMutex
	prints map[string]domain.Fingerprint
}

// NewAppliedCache creates a cache and loads persisted fingerprints. store
// may be nil, in which case the cache lives only in memory.
func NewAppliedCache(ctx context.Context, store driven.AppliedSnapshotStore, namespace string) *AppliedCache {
	c := &AppliedCache{
		store:     store,
		namespace: namespace,
		prints:    make(map[string]domain.Fingerprint),
	}
	if store == nil {
		return c
	}

	saved, err := store.LoadApplied(ctx, namespace)
	if err != nil {
		logger.Warn("applied cache: load %s: %v", namespace, err)
		return c
	}
	for boardID, hex := range saved {
		fp, err := domain.ParseFingerprint(hex)
		if err != nil {
			logger.Debug("applied cache: skipping %s: %v", boardID, err)
			continue
		}
		c.prints[boardID] = fp
	}
	return c
}

// Matches reports whether s is exactly the last applied snapshot of boardID.
func (c *AppliedCache) Matches(boardID string, s domain.Snapshot) bool {
	c.mu.RLock()
	fp, ok := c.prints[boardID]
	c.mu.RUnlock()
	return ok && fp == Fingerprint(s)
}

// Record stores s as the last applied snapshot of boardID.
func (c *AppliedCache) Record(ctx context.Context, boardID string, s domain.Snapshot) {
	fp := Fingerprint(s)
	c.mu.Lock()
	c.prints[boardID] = fp
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.SaveApplied(ctx, c.namespace, boardID, fp.String()); err != nil {
		logger.Warn("applied cache: persist %s: %v", boardID, err)
	}
}

// Forget drops boardID from the cache.
func (c *AppliedCache) Forget(ctx context.Context, boardID string) {
	c.mu.Lock()
	_, ok := c.prints[boardID]
	delete(c.prints, boardID)
	c.mu.Unlock()

	if !ok || c.store == nil {
		return
	}
	if err := c.store.DeleteApplied(ctx, c.namespace, boardID); err != nil {
		logger.Warn("applied cache: delete %s: %v", boardID, err)
	}
}

// Len returns the number of boards with a recorded snapshot.
func (c *AppliedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prints)
}
