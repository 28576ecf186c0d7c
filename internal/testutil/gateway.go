package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// GatewayCall records one call made to a FakeGateway.
type GatewayCall struct {
	Kind     domain.OperationKind
	TargetID string
	Name     string
	Snapshot domain.Snapshot
}

// FakeBoard is the remote state of one board held by a FakeGateway.
type FakeBoard struct {
	ID       string
	Scope    string
	Name     string
	Snapshot domain.Snapshot
}

// FakeGateway is an in-memory remote board store with scriptable failures.
// Create is idempotent by correlation ID and Delete of a missing board
// succeeds, matching the contract of driven.RemoteGateway.
type FakeGateway struct {
	mu            sync.Mutex
	boards        map[string]FakeBoard
	byCorrelation map[string]string
	calls         []GatewayCall
	nextID        int
	offline       bool
	failNext      int
	loseNext      int
	failTargets   map[string]error

	// OnCall, when set, runs before each call is applied. Tests use it to
	// act while a call is in flight.
	OnCall func(GatewayCall)
}

var _ driven.RemoteGateway = (*FakeGateway)(nil)

// NewFakeGateway creates an empty, online gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		boards:        make(map[string]FakeBoard),
		byCorrelation: make(map[string]string),
		failTargets:   make(map[string]error),
	}
}

// ErrOffline is returned by every call while the gateway is offline.
var ErrOffline = fmt.Errorf("%w: offline", domain.ErrGatewayUnavailable)

// SetOffline makes every call fail with ErrOffline until reset.
func (g *FakeGateway) SetOffline(offline bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offline = offline
}

// FailNext makes the next n calls fail regardless of kind.
func (g *FakeGateway) FailNext(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = n
}

// LoseNextResponses makes the next n calls take effect remotely but report
// a failure, as when a response is lost in transit.
func (g *FakeGateway) LoseNextResponses(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loseNext = n
}

// ErrResponseLost is returned by calls whose response was lost.
var ErrResponseLost = fmt.Errorf("%w: response lost", domain.ErrGatewayUnavailable)

// FailTarget makes every call for targetID fail with err. A nil err clears it.
func (g *FakeGateway) FailTarget(targetID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failTargets, targetID)
		return
	}
	g.failTargets[targetID] = err
}

// Seed stores a board as if it had been created earlier.
func (g *FakeGateway) Seed(board FakeBoard) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.boards[board.ID] = board
}

// Board returns the remote state of a board.
func (g *FakeGateway) Board(id string) (FakeBoard, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.boards[id]
	return b, ok
}

// BoardCount returns how many boards exist remotely.
func (g *FakeGateway) BoardCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.boards)
}

// Calls returns every call made so far, in order.
func (g *FakeGateway) Calls() []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GatewayCall, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallCount returns how many calls of kind were made.
func (g *FakeGateway) CallCount(kind domain.OperationKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Create implements driven.RemoteGateway.
func (g *FakeGateway) Create(_ context.Context, req domain.CreateRequest) (string, error) {
	call := GatewayCall{Kind: domain.OpCreate, TargetID: req.CorrelationID, Name: req.Name, Snapshot: req.Snapshot}
	if err := g.begin(call); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.byCorrelation[req.CorrelationID]
	if !ok {
		g.nextID++
		id = fmt.Sprintf("board-%d", g.nextID)
		g.byCorrelation[req.CorrelationID] = id
		g.boards[id] = FakeBoard{ID: id, Scope: req.Scope, Name: req.Name, Snapshot: req.Snapshot}
	}
	if err := g.loseLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// Update implements driven.RemoteGateway. Updating an unknown board creates it.
func (g *FakeGateway) Update(_ context.Context, req domain.UpdateRequest) error {
	call := GatewayCall{Kind: domain.OpUpdate, TargetID: req.TargetID, Snapshot: req.Snapshot}
	if req.Name != nil {
		call.Name = *req.Name
		if req.IsRename() {
			call.Kind = domain.OpRename
		}
	}
	if err := g.begin(call); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.boards[req.TargetID]
	b.ID = req.TargetID
	if !req.Snapshot.IsEmpty() {
		b.Snapshot = req.Snapshot
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	g.boards[req.TargetID] = b
	return g.loseLocked()
}

// Delete implements driven.RemoteGateway.
func (g *FakeGateway) Delete(_ context.Context, targetID string) error {
	if err := g.begin(GatewayCall{Kind: domain.OpDelete, TargetID: targetID}); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.boards, targetID)
	return g.loseLocked()
}

func (g *FakeGateway) loseLocked() error {
	if g.loseNext > 0 {
		g.loseNext--
		return ErrResponseLost
	}
	return nil
}

// begin records the call, runs OnCall and applies scripted failures.
func (g *FakeGateway) begin(call GatewayCall) error {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	hook := g.OnCall
	g.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.offline {
		return ErrOffline
	}
	if g.failNext > 0 {
		g.failNext--
		return fmt.Errorf("%w: scripted failure", domain.ErrGatewayUnavailable)
	}
	if err, ok := g.failTargets[call.TargetID]; ok {
		return err
	}
	return nil
}
