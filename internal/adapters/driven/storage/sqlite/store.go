package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/boardsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all engine store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.boardsync/data/boardsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".boardsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "boardsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// OperationLogStore returns an OperationLogStore backed by this store.
func (s *Store) OperationLogStore() driven.OperationLogStore {
	return &operationLogStore{store: s}
}

// AppliedSnapshotStore returns an AppliedSnapshotStore backed by this store.
func (s *Store) AppliedSnapshotStore() driven.AppliedSnapshotStore {
	return &appliedSnapshotStore{store: s}
}

// PassHistoryStore returns a PassHistoryStore backed by this store.
func (s *Store) PassHistoryStore() driven.PassHistoryStore {
	return &passHistoryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Operation Log Store ====================

// operationLogStore implements driven.OperationLogStore.
type operationLogStore struct {
	store *Store
}

var _ driven.OperationLogStore = (*operationLogStore)(nil)

// LoadOperationLog returns the serialized log of namespace, or nil if none
// was saved.
func (s *operationLogStore) LoadOperationLog(ctx context.Context, namespace string) ([]byte, error) {
	var data []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT data FROM operation_logs WHERE namespace = ?", namespace).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading operation log: %w", err)
	}
	return data, nil
}

// SaveOperationLog replaces the serialized log of namespace.
func (s *operationLogStore) SaveOperationLog(ctx context.Context, namespace string, data []byte) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO operation_logs (namespace, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, namespace, data)
	if err != nil {
		return fmt.Errorf("saving operation log: %w", err)
	}
	return nil
}

// ==================== Applied Snapshot Store ====================

// appliedSnapshotStore implements driven.AppliedSnapshotStore.
type appliedSnapshotStore struct {
	store *Store
}

var _ driven.AppliedSnapshotStore = (*appliedSnapshotStore)(nil)

// LoadApplied returns every board fingerprint saved under namespace.
func (s *appliedSnapshotStore) LoadApplied(ctx context.Context, namespace string) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT board_id, fingerprint FROM applied_snapshots WHERE namespace = ?", namespace)
	if err != nil {
		return nil, fmt.Errorf("querying applied snapshots: %w", err)
	}
	defer rows.Close()

	prints := make(map[string]string)
	for rows.Next() {
		var boardID, fingerprint string
		if err := rows.Scan(&boardID, &fingerprint); err != nil {
			return nil, fmt.Errorf("scanning applied snapshot: %w", err)
		}
		prints[boardID] = fingerprint
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applied snapshots: %w", err)
	}
	return prints, nil
}

// SaveApplied records the fingerprint for a board.
func (s *appliedSnapshotStore) SaveApplied(ctx context.Context, namespace, boardID, fingerprint string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO applied_snapshots (namespace, board_id, fingerprint, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, board_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at
	`, namespace, boardID, fingerprint)
	if err != nil {
		return fmt.Errorf("saving applied snapshot: %w", err)
	}
	return nil
}

// DeleteApplied forgets a board.
func (s *appliedSnapshotStore) DeleteApplied(ctx context.Context, namespace, boardID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM applied_snapshots WHERE namespace = ? AND board_id = ?", namespace, boardID)
	if err != nil {
		return fmt.Errorf("deleting applied snapshot: %w", err)
	}
	return nil
}
