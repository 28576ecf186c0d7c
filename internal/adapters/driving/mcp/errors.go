// Package mcp provides an MCP (Model Context Protocol) server adapter for boardsync.
// It lets AI assistants inspect the sync queue and queue board changes.
package mcp

import "errors"

// ErrMissingEngine is returned when the sync engine is not provided.
var ErrMissingEngine = errors.New("mcp: sync engine is required")
