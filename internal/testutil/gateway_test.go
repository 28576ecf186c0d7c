package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

func TestFakeGateway_CreateIsIdempotentByCorrelation(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()
	req := domain.CreateRequest{Scope: "ws", CorrelationID: "local-1", Name: "A"}

	id1, err := g.Create(ctx, req)
	require.NoError(t, err)
	id2, err := g.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, g.BoardCount())
	assert.Equal(t, 2, g.CallCount(domain.OpCreate))
}

func TestFakeGateway_DeleteMissingSucceeds(t *testing.T) {
	g := NewFakeGateway()
	assert.NoError(t, g.Delete(context.Background(), "board-404"))
}

func TestFakeGateway_UpdateAndRename(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()
	name := "Renamed"

	require.NoError(t, g.Update(ctx, domain.UpdateRequest{TargetID: "b1", Snapshot: domain.Snapshot(`{"v":1}`)}))
	require.NoError(t, g.Update(ctx, domain.UpdateRequest{TargetID: "b1", Name: &name}))

	b, ok := g.Board("b1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", b.Name)
	assert.Equal(t, `{"v":1}`, string(b.Snapshot))
	assert.Equal(t, 1, g.CallCount(domain.OpRename))
}

func TestFakeGateway_ScriptedFailures(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()

	g.FailNext(1)
	assert.ErrorIs(t, g.Delete(ctx, "x"), domain.ErrGatewayUnavailable)
	assert.NoError(t, g.Delete(ctx, "x"))

	g.SetOffline(true)
	assert.ErrorIs(t, g.Delete(ctx, "x"), ErrOffline)
	g.SetOffline(false)

	boom := errors.New("boom")
	g.FailTarget("x", boom)
	assert.ErrorIs(t, g.Delete(ctx, "x"), boom)
	assert.NoError(t, g.Delete(ctx, "y"))
	g.FailTarget("x", nil)
	assert.NoError(t, g.Delete(ctx, "x"))
}

func TestFakeGateway_LostResponseStillApplies(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()
	req := domain.CreateRequest{Scope: "ws", CorrelationID: "local-9", Name: "B"}

	g.LoseNextResponses(1)
	_, err := g.Create(ctx, req)
	assert.ErrorIs(t, err, ErrResponseLost)
	assert.Equal(t, 1, g.BoardCount())

	id, err := g.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "board-1", id)
	assert.Equal(t, 1, g.BoardCount())
}
