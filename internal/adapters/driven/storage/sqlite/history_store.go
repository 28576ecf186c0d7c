package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// passHistoryStore implements driven.PassHistoryStore.
type passHistoryStore struct {
	store *Store
}

var _ driven.PassHistoryStore = (*passHistoryStore)(nil)

// RecordPass logs the outcome of a drain pass.
func (s *passHistoryStore) RecordPass(ctx context.Context, result *domain.PassResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pass_results (pass_id, scope, trigger_kind, started_at, ended_at,
			attempted, succeeded, failed, dropped, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.Scope, string(result.Trigger),
		formatTime(result.StartedAt), formatTime(result.EndedAt),
		result.Attempted, result.Succeeded, result.Failed, result.Dropped, result.Skipped,
		nullString(result.Error))

	if err != nil {
		return fmt.Errorf("recording pass result: %w", err)
	}
	return nil
}

// ListPasses returns recent results for a scope.
// Results are ordered by start time descending (most recent first).
func (s *passHistoryStore) ListPasses(ctx context.Context, scope string, limit int) ([]domain.PassResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pass_id, scope, trigger_kind, started_at, ended_at,
			attempted, succeeded, failed, dropped, skipped, error
		FROM pass_results
		WHERE scope = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pass history: %w", err)
	}
	defer rows.Close()

	var results []domain.PassResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanPassResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pass history: %w", err)
	}

	return results, nil
}

// PruneHistory removes old pass results beyond the retention limit.
// Keeps the most recent 'keep' results per scope.
func (s *passHistoryStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM pass_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY scope ORDER BY started_at DESC, id DESC) as rn
				FROM pass_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning pass history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanPassResult scans a pass result from *sql.Rows.
func scanPassResult(rows *sql.Rows) (*domain.PassResult, error) {
	var result domain.PassResult
	var trigger, startedAt, endedAt string
	var errMsg sql.NullString

	if err := rows.Scan(&result.ID, &result.Scope, &trigger, &startedAt, &endedAt,
		&result.Attempted, &result.Succeeded, &result.Failed, &result.Dropped, &result.Skipped,
		&errMsg); err != nil {
		return nil, fmt.Errorf("scanning pass result: %w", err)
	}

	result.Trigger = domain.PassTrigger(trigger)
	result.StartedAt = parseTime(startedAt)
	result.EndedAt = parseTime(endedAt)
	if errMsg.Valid {
		result.Error = errMsg.String
	}

	return &result, nil
}

// timeLayout sorts lexically: fixed-width fractional seconds, always UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime formats t in UTC so that stored values order correctly.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored time. Returns zero time if the string is invalid.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
