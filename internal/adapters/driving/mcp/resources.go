package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

const (
	uriScheme = "boardsync://"

	// historyResourceLimit is how many passes the history resource returns.
	historyResourceLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "queue",
		Name:        "queue",
		Description: "Operations waiting to reach the remote store",
		MIMEType:    "application/json",
	}, s.handleQueueResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "failed",
		Name:        "failed",
		Description: "Operations dropped after exhausting their attempts",
		MIMEType:    "application/json",
	}, s.handleFailedResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recent drain passes, most recent first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "boards/{boardId}/status",
		Name:        "board-status",
		Description: "Unsaved state and resolved remote ID of a board",
		MIMEType:    "application/json",
	}, s.handleBoardStatusResource)
}

func (s *Server) handleQueueResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, toOperationOutputs(s.ports.Engine.PendingOperations()))
}

func (s *Server) handleFailedResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, toOperationOutputs(s.ports.Engine.FailedOperations()))
}

// passInfo is the JSON shape of one drain pass.
type passInfo struct {
	ID         string `json:"id"`
	Trigger    string `json:"trigger"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Attempted  int    `json:"attempted"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Dropped    int    `json:"dropped"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []passInfo{}
	if s.ports.History != nil {
		passes, err := s.ports.History.Recent(ctx, historyResourceLimit)
		if err != nil {
			return nil, fmt.Errorf("listing passes: %w", err)
		}
		for i := range passes {
			infos = append(infos, toPassInfo(&passes[i]))
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleBoardStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	boardID := extractBoardID(req.Params.URI)
	if boardID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := struct {
		BoardID    string `json:"board_id"`
		ResolvedID string `json:"resolved_id"`
		Unsaved    bool   `json:"unsaved"`
	}{
		BoardID:    boardID,
		ResolvedID: s.ports.Engine.ResolveID(boardID),
		Unsaved:    s.ports.Engine.HasUnsavedChanges(boardID),
	}
	return jsonResource(req.Params.URI, info)
}

func toPassInfo(p *domain.PassResult) passInfo {
	return passInfo{
		ID:         p.ID,
		Trigger:    string(p.Trigger),
		StartedAt:  p.StartedAt.Format(time.RFC3339),
		DurationMS: p.Duration().Milliseconds(),
		Attempted:  p.Attempted,
		Succeeded:  p.Succeeded,
		Failed:     p.Failed,
		Dropped:    p.Dropped,
		Skipped:    p.Skipped,
		Error:      p.Error,
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractBoardID extracts the board ID from a URI like boardsync://boards/{boardId}/status.
func extractBoardID(uri string) string {
	const prefix = uriScheme + "boards/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
