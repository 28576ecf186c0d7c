package driven

import (
	"context"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// SyncMetrics receives engine measurements. Optional: a nil SyncMetrics
// disables recording.
type SyncMetrics interface {
	// RecordEnqueue counts an operation entering the log.
	RecordEnqueue(ctx context.Context, kind domain.OperationKind, replaced bool)

	// RecordPass records the counters and duration of a drain pass.
	RecordPass(ctx context.Context, result domain.PassResult)

	// RecordQueueDepth reports the current operation log length.
	RecordQueueDepth(ctx context.Context, depth int)
}
