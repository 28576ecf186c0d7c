package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

func TestFlushCmd_Success(t *testing.T) {
	engine := newMockEngine()
	engine.pending = []domain.Operation{{ID: "op-1"}}
	withServices(t, engine, nil, nil)

	out, err := runCommand(t, "flush")

	require.NoError(t, err)
	assert.Equal(t, 1, engine.flushes)
	assert.Contains(t, out, "Flushing 1 operation(s)...")
	assert.Contains(t, out, "All changes saved.")
}

func TestFlushCmd_Failure(t *testing.T) {
	engine := newMockEngine()
	engine.pending = []domain.Operation{{ID: "op-1"}, {ID: "op-2"}}
	engine.flushErr = domain.ErrFlushFailed
	withServices(t, engine, nil, nil)

	out, err := runCommand(t, "flush")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFlushFailed)
	assert.Contains(t, err.Error(), "2 operation(s) still queued")
	assert.NotContains(t, out, "All changes saved.")
}

func TestFlushCmd_ServiceNotConfigured(t *testing.T) {
	withServices(t, nil, nil, nil)

	_, err := runCommand(t, "flush")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync engine not configured")
}
