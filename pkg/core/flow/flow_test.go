package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEdge(t *testing.T, g *Graph, from, to, capacity int, cost int64) int {
	t.Helper()
	id, err := g.AddEdge(from, to, capacity, cost)
	require.NoError(t, err)
	return id
}

func TestAddEdge_Errors(t *testing.T) {
	g := NewGraph(2)

	_, err := g.AddEdge(0, 1, -1, 0)
	var edgeErr *EdgeError
	require.True(t, errors.As(err, &edgeErr))
	assert.Equal(t, -1, edgeErr.Capacity)

	_, err = g.AddEdge(0, 5, 1, 0)
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestAddNodeAndCounts(t *testing.T) {
	g := NewGraph(0)
	a := g.AddNode()
	b := g.AddNode()
	c := g.AddNode()

	first := mustEdge(t, g, a, b, 1, 0)
	second := mustEdge(t, g, a, c, 1, 0)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []int{first, second}, g.OutEdges(a))
	assert.Empty(t, g.OutEdges(b))
}

func TestMinCostMaxFlow_TwoPaths(t *testing.T) {
	// s=0, a=1, b=2, t=3
	g := NewGraph(4)
	mustEdge(t, g, 0, 1, 1, 1)
	mustEdge(t, g, 0, 2, 1, 3)
	mustEdge(t, g, 1, 3, 1, 1)
	mustEdge(t, g, 2, 3, 1, 1)
	mustEdge(t, g, 1, 2, 1, 1)

	res, err := g.MinCostMaxFlow(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Flow)
	assert.Equal(t, int64(6), res.Cost)
	assert.Equal(t, res.Cost, g.TotalCost())
	assert.NoError(t, g.Verify(0, 3))
}

func TestMinCostMaxFlow_ReroutesThroughReverseEdge(t *testing.T) {
	// Entities A and B, resources X and Y with capacity 1 each.
	// A accepts X (cost 0) or Y (cost 1). B only accepts X (cost 0).
	// The optimum gives X to B and Y to A.
	const (
		s = iota
		entityA
		entityB
		resX
		resY
		sink
	)
	g := NewGraph(6)
	mustEdge(t, g, s, entityA, 1, 0)
	mustEdge(t, g, s, entityB, 1, 0)
	aToX := mustEdge(t, g, entityA, resX, 1, 0)
	aToY := mustEdge(t, g, entityA, resY, 1, 1)
	bToX := mustEdge(t, g, entityB, resX, 1, 0)
	mustEdge(t, g, resX, sink, 1, 0)
	mustEdge(t, g, resY, sink, 1, 0)

	res, err := g.MinCostMaxFlow(context.Background(), s, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Flow)
	assert.Equal(t, int64(1), res.Cost)
	assert.Equal(t, 0, g.Flow(aToX))
	assert.Equal(t, 1, g.Flow(aToY))
	assert.Equal(t, 1, g.Flow(bToX))
	assert.NoError(t, g.Verify(s, sink))
}

func TestMinCostMaxFlow_PrefersCheaperOfContestedPaths(t *testing.T) {
	// Two entities want the single seat; the cheaper edge must win.
	g := NewGraph(4)
	mustEdge(t, g, 0, 1, 1, 0)
	mustEdge(t, g, 0, 2, 1, 0)
	cheap := mustEdge(t, g, 1, 3, 1, 0)
	expensive := mustEdge(t, g, 2, 3, 1, 20)

	sink := g.AddNode()
	mustEdge(t, g, 3, sink, 1, 0)

	res, err := g.MinCostMaxFlow(context.Background(), 0, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Flow)
	assert.Equal(t, int64(0), res.Cost)
	assert.Equal(t, 1, g.Flow(cheap))
	assert.Equal(t, 0, g.Flow(expensive))
}

func TestMinCostMaxFlow_NegativeCost(t *testing.T) {
	g := NewGraph(3)
	mustEdge(t, g, 0, 1, 1, -2)
	mustEdge(t, g, 1, 2, 1, 0)
	mustEdge(t, g, 0, 2, 1, 0)

	res, err := g.MinCostMaxFlow(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Flow)
	assert.Equal(t, int64(-2), res.Cost)
}

func TestMinCostMaxFlow_NegativeCycle(t *testing.T) {
	g := NewGraph(3)
	mustEdge(t, g, 0, 1, 1, 0)
	mustEdge(t, g, 1, 2, 1, -5)
	mustEdge(t, g, 2, 1, 1, 1)

	_, err := g.MinCostMaxFlow(context.Background(), 0, 2)
	assert.Error(t, err)
}

func TestMinCostMaxFlow_ZeroCapacity(t *testing.T) {
	g := NewGraph(2)
	mustEdge(t, g, 0, 1, 0, 0)

	res, err := g.MinCostMaxFlow(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Flow)
}

func TestMinCostMaxFlow_InvalidTerminals(t *testing.T) {
	g := NewGraph(2)

	_, err := g.MinCostMaxFlow(context.Background(), 0, 9)
	assert.True(t, errors.Is(err, ErrNodeNotFound))

	_, err = g.MinCostMaxFlow(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestMinCostMaxFlow_Cancelled(t *testing.T) {
	g := NewGraph(2)
	mustEdge(t, g, 0, 1, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.MinCostMaxFlow(ctx, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxFlow_MultiPath(t *testing.T) {
	// A→B (5), A→C (4), C→B (3)
	g := NewGraph(3)
	mustEdge(t, g, 0, 1, 5, 0)
	mustEdge(t, g, 0, 2, 4, 0)
	mustEdge(t, g, 2, 1, 3, 0)

	flow, err := g.MaxFlow(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, flow)
	assert.NoError(t, g.Verify(0, 1))
}

func TestMaxFlow_Bipartite(t *testing.T) {
	// Three entities, two seats: flow is capped by the seats.
	g := NewGraph(0)
	s, sink := g.AddNode(), g.AddNode()
	res := g.AddNode()
	for i := 0; i < 3; i++ {
		e := g.AddNode()
		mustEdge(t, g, s, e, 1, 0)
		mustEdge(t, g, e, res, 1, 0)
	}
	mustEdge(t, g, res, sink, 2, 0)

	flow, err := g.MaxFlow(context.Background(), s, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, flow)
}

func TestMaxFlow_MatchesMinCostFlowValue(t *testing.T) {
	build := func() *Graph {
		g := NewGraph(6)
		mustEdge(t, g, 0, 1, 2, 4)
		mustEdge(t, g, 0, 2, 3, 1)
		mustEdge(t, g, 1, 3, 2, 2)
		mustEdge(t, g, 2, 3, 1, 7)
		mustEdge(t, g, 2, 4, 2, 1)
		mustEdge(t, g, 3, 5, 3, 0)
		mustEdge(t, g, 4, 5, 1, 0)
		return g
	}

	flow, err := build().MaxFlow(context.Background(), 0, 5)
	require.NoError(t, err)

	res, err := build().MinCostMaxFlow(context.Background(), 0, 5)
	require.NoError(t, err)

	assert.Equal(t, flow, res.Flow)
	assert.Equal(t, 4, flow)
}

func TestVerify_DetectsBrokenFlow(t *testing.T) {
	g := NewGraph(3)
	first := mustEdge(t, g, 0, 1, 1, 0)
	mustEdge(t, g, 1, 2, 1, 0)

	// Flow enters node 1 but never leaves it
	g.push(first, 1)
	err := g.Verify(0, 2)
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "conservation", inv.Invariant)

	// Over capacity
	g2 := NewGraph(2)
	only := mustEdge(t, g2, 0, 1, 1, 0)
	g2.push(only, 2)
	err = g2.Verify(0, 1)
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "capacity", inv.Invariant)

	// Reverse twin out of sync
	g3 := NewGraph(2)
	twin := mustEdge(t, g3, 0, 1, 1, 0)
	g3.edges[twin].Flow = 1
	err = g3.Verify(0, 1)
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "residual", inv.Invariant)
}
