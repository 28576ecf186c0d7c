package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// EmptyInput is the input schema of tools that take no arguments.
type EmptyInput struct{}

// StatusInput is the input schema for the sync_status tool.
type StatusInput struct {
	BoardID string `json:"board_id,omitempty" jsonschema:"optional board to report unsaved changes for"`
}

// StatusOutput is the output schema for the sync_status tool.
type StatusOutput struct {
	State          string `json:"state"`
	IsSyncing      bool   `json:"is_syncing"`
	PendingChanges bool   `json:"pending_changes"`
	LastSyncTime   string `json:"last_sync_time,omitempty"`
	Error          string `json:"error,omitempty"`
	Queued         int    `json:"queued"`
	Failed         int    `json:"failed"`

	BoardID    string `json:"board_id,omitempty"`
	ResolvedID string `json:"resolved_id,omitempty"`
	Unsaved    bool   `json:"unsaved,omitempty"`
}

// UpdateBoardInput is the input schema for the update_board tool.
type UpdateBoardInput struct {
	BoardID  string `json:"board_id" jsonschema:"the board to update"`
	Snapshot any    `json:"snapshot" jsonschema:"the full board snapshot as a JSON value"`
}

// CreateBoardInput is the input schema for the create_board tool.
type CreateBoardInput struct {
	Name     string `json:"name" jsonschema:"the board name"`
	Snapshot any    `json:"snapshot,omitempty" jsonschema:"optional initial board snapshot"`
}

// CreateBoardOutput is the output schema for the create_board tool.
type CreateBoardOutput struct {
	BoardID string `json:"board_id"`
	Queued  bool   `json:"queued" jsonschema:"true when the remote create has not landed yet and board_id is a placeholder"`
}

// RenameBoardInput is the input schema for the rename_board tool.
type RenameBoardInput struct {
	BoardID string `json:"board_id" jsonschema:"the board to rename"`
	Name    string `json:"name" jsonschema:"the new name"`
}

// BoardInput is the input schema of tools that act on a single board.
type BoardInput struct {
	BoardID string `json:"board_id" jsonschema:"the board to act on"`
}

// AckOutput reports whether a change was accepted into the queue.
type AckOutput struct {
	BoardID string `json:"board_id"`
	Queued  bool   `json:"queued" jsonschema:"false when the snapshot equals the last synced state and nothing was queued"`
}

// FlushOutput is the output schema for the flush tool.
type FlushOutput struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Pending int    `json:"pending"`
}

// RetryOutput is the output schema for the retry_failed tool.
type RetryOutput struct {
	Requeued int `json:"requeued"`
}

// PendingOutput is the output schema for the list_pending tool.
type PendingOutput struct {
	Operations []OperationOutput `json:"operations"`
	Failed     []OperationOutput `json:"failed"`
}

// OperationOutput describes one queued operation.
type OperationOutput struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	TargetID   string `json:"target_id"`
	EnqueuedAt string `json:"enqueued_at"`
	Attempts   int    `json:"attempts"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report whether board changes are syncing, pending or failed",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pending",
		Description: "List operations waiting to reach the remote store and operations that gave up",
	}, s.handleListPending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_board",
		Description: "Queue a new snapshot of a board; edits are debounced before they are sent",
	}, s.handleUpdateBoard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_board",
		Description: "Create a board; returns a placeholder ID while offline",
	}, s.handleCreateBoard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rename_board",
		Description: "Queue a board rename",
	}, s.handleRenameBoard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_board",
		Description: "Discard pending changes of a board and queue its deletion",
	}, s.handleDeleteBoard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "flush",
		Description: "Send all buffered and queued changes now and report the outcome",
	}, s.handleFlush)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retry_failed",
		Description: "Requeue operations that exhausted their attempts",
	}, s.handleRetryFailed)
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	engine := s.ports.Engine
	st := engine.Status()

	out := StatusOutput{
		State:          st.Label(),
		IsSyncing:      st.IsSyncing,
		PendingChanges: st.PendingChanges,
		Error:          st.Error,
		Queued:         len(engine.PendingOperations()),
		Failed:         len(engine.FailedOperations()),
	}
	if st.HasSynced() {
		out.LastSyncTime = st.LastSyncTime.Format(time.RFC3339)
	}
	if input.BoardID != "" {
		out.BoardID = input.BoardID
		out.ResolvedID = engine.ResolveID(input.BoardID)
		out.Unsaved = engine.HasUnsavedChanges(input.BoardID)
	}
	return nil, out, nil
}

func (s *Server) handleListPending(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, PendingOutput, error) {
	return nil, PendingOutput{
		Operations: toOperationOutputs(s.ports.Engine.PendingOperations()),
		Failed:     toOperationOutputs(s.ports.Engine.FailedOperations()),
	}, nil
}

func (s *Server) handleUpdateBoard(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input UpdateBoardInput,
) (*mcp.CallToolResult, AckOutput, error) {
	snapshot, err := snapshotFrom(input.Snapshot)
	if err != nil {
		return nil, AckOutput{}, err
	}
	accepted, err := s.ports.Engine.SubmitUpdate(input.BoardID, snapshot)
	if err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{BoardID: input.BoardID, Queued: accepted}, nil
}

func (s *Server) handleCreateBoard(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateBoardInput,
) (*mcp.CallToolResult, CreateBoardOutput, error) {
	snapshot, err := snapshotFrom(input.Snapshot)
	if err != nil {
		return nil, CreateBoardOutput{}, err
	}
	id, err := s.ports.Engine.Create(ctx, input.Name, snapshot)
	if err != nil {
		return nil, CreateBoardOutput{}, err
	}
	return nil, CreateBoardOutput{BoardID: id, Queued: domain.IsPlaceholderID(id)}, nil
}

func (s *Server) handleRenameBoard(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenameBoardInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.Engine.Rename(ctx, input.BoardID, input.Name); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{BoardID: input.BoardID, Queued: true}, nil
}

func (s *Server) handleDeleteBoard(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BoardInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.Engine.Delete(ctx, input.BoardID); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{BoardID: input.BoardID, Queued: true}, nil
}

// handleFlush reports remote failures in the output rather than as a tool
// error: a failed flush leaves the changes queued, which is a normal state.
func (s *Server) handleFlush(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, FlushOutput, error) {
	err := s.ports.Engine.ForceFlush(ctx)
	out := FlushOutput{OK: err == nil, Pending: len(s.ports.Engine.PendingOperations())}
	if err != nil {
		out.Error = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleRetryFailed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, RetryOutput, error) {
	return nil, RetryOutput{Requeued: s.ports.Engine.RetryFailed(ctx)}, nil
}

// snapshotFrom converts a decoded JSON value into a Snapshot. A missing
// value yields an empty snapshot.
func snapshotFrom(v any) (domain.Snapshot, error) {
	if v == nil {
		return nil, nil
	}
	return domain.NewSnapshot(v)
}

func toOperationOutputs(ops []domain.Operation) []OperationOutput {
	out := make([]OperationOutput, len(ops))
	for i, op := range ops {
		out[i] = OperationOutput{
			ID:         op.ID,
			Kind:       string(op.Kind),
			TargetID:   op.TargetID,
			EnqueuedAt: op.EnqueuedAt.Format(time.RFC3339),
			Attempts:   op.Attempts,
		}
	}
	return out
}
