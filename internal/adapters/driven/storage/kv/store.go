// Package kv persists engine state in an IPFS datastore, by default LevelDB.
//
// It is the alternative to the sqlite package for hosts that already keep
// state in a datastore. Pass history is not supported: the kv backend
// serves only the operation log and the applied snapshot cache.
package kv

import (
	"context"
	"strings"

	datastore "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	leveldb "github.com/ipfs/go-ds-leveldb"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/logger"
)

var (
	oplogRoot   = datastore.NewKey("/oplog")
	appliedRoot = datastore.NewKey("/applied")
)

// Store implements the operation log and applied snapshot stores over a
// datastore. Each namespace maps to one key holding the serialized log.
type Store struct {
	ds  datastore.Batching
	log *zap.Logger
}

var (
	_ driven.OperationLogStore    = (*Store)(nil)
	_ driven.AppliedSnapshotStore = (*Store)(nil)
)

// Open opens or creates a LevelDB datastore in dir.
func Open(dir string) (*Store, error) {
	ds, err := leveldb.NewDatastore(dir, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init leveldb datastore")
	}
	s := New(ds)
	s.log.Debug("opened datastore", zap.String("dir", dir))
	return s, nil
}

// New wraps an existing datastore.
func New(ds datastore.Batching) *Store {
	return &Store{ds: ds, log: logger.Named("kv")}
}

// Close closes the underlying datastore.
func (s *Store) Close() error {
	return s.ds.Close()
}

// LoadOperationLog implements driven.OperationLogStore.
func (s *Store) LoadOperationLog(ctx context.Context, namespace string) ([]byte, error) {
	data, err := s.ds.Get(ctx, oplogRoot.ChildString(namespace))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load operation log %s", namespace)
	}
	return data, nil
}

// SaveOperationLog implements driven.OperationLogStore.
func (s *Store) SaveOperationLog(ctx context.Context, namespace string, data []byte) error {
	if err := s.ds.Put(ctx, oplogRoot.ChildString(namespace), data); err != nil {
		return errors.Wrapf(err, "unable to save operation log %s", namespace)
	}
	if err := s.ds.Sync(ctx, oplogRoot); err != nil {
		return errors.Wrap(err, "unable to sync operation log")
	}
	s.log.Debug("saved operation log", zap.String("namespace", namespace), zap.Int("bytes", len(data)))
	return nil
}

// LoadApplied implements driven.AppliedSnapshotStore.
func (s *Store) LoadApplied(ctx context.Context, namespace string) (map[string]string, error) {
	prefix := appliedRoot.ChildString(namespace)
	results, err := s.ds.Query(ctx, query.Query{Prefix: prefix.String()})
	if err != nil {
		return nil, errors.Wrap(err, "unable to query applied snapshots")
	}
	entries, err := results.Rest()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read applied snapshots")
	}

	prints := make(map[string]string, len(entries))
	for _, e := range entries {
		boardID := strings.TrimPrefix(e.Key, prefix.String()+"/")
		prints[boardID] = string(e.Value)
	}
	return prints, nil
}

// SaveApplied implements driven.AppliedSnapshotStore.
func (s *Store) SaveApplied(ctx context.Context, namespace, boardID, fingerprint string) error {
	key := appliedRoot.ChildString(namespace).ChildString(boardID)
	if err := s.ds.Put(ctx, key, []byte(fingerprint)); err != nil {
		return errors.Wrapf(err, "unable to save applied snapshot of %s", boardID)
	}
	return nil
}

// DeleteApplied implements driven.AppliedSnapshotStore.
func (s *Store) DeleteApplied(ctx context.Context, namespace, boardID string) error {
	key := appliedRoot.ChildString(namespace).ChildString(boardID)
	if err := s.ds.Delete(ctx, key); err != nil && err != datastore.ErrNotFound {
		return errors.Wrapf(err, "unable to delete applied snapshot of %s", boardID)
	}
	return nil
}
