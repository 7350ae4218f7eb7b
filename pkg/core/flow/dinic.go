package flow

import (
	"context"
	"math"
)

// MaxFlow computes a maximum flow from source to sink with Dinic's algorithm
// (BFS level graph + DFS blocking flow). Edge costs are ignored.
//
// Complexity: O(E·√V) on unit-capacity networks such as entity→resource graphs.
func (g *Graph) MaxFlow(ctx context.Context, source, sink int) (int, error) {
	if err := g.checkTerminals(source, sink); err != nil {
		return 0, err
	}

	n := len(g.adj)
	level := make([]int, n)
	iter := make([]int, n)
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		if !g.buildLevels(source, sink, level) {
			break
		}

		for i := range iter {
			iter[i] = 0
		}
		for {
			pushed := g.blockingPush(source, sink, math.MaxInt, level, iter)
			if pushed == 0 {
				break
			}
			total += pushed
		}
	}

	return total, nil
}

// buildLevels assigns BFS distances from source over residual edges.
// Returns false if the sink is unreachable.
func (g *Graph) buildLevels(source, sink int, level []int) bool {
	for i := range level {
		level[i] = -1
	}
	level[source] = 0

	queue := []int{source}
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		for _, id := range g.adj[u] {
			e := g.edges[id]
			if e.Residual() > 0 && level[e.To] < 0 {
				level[e.To] = level[u] + 1
				queue = append(queue, e.To)
			}
		}
	}

	return level[sink] >= 0
}

// blockingPush sends flow from u toward sink along strictly increasing levels
func (g *Graph) blockingPush(u, sink, available int, level, iter []int) int {
	if u == sink {
		return available
	}

	for ; iter[u] < len(g.adj[u]); iter[u]++ {
		id := g.adj[u][iter[u]]
		e := g.edges[id]
		if e.Residual() <= 0 || level[e.To] != level[u]+1 {
			continue
		}

		send := min(available, e.Residual())
		if pushed := g.blockingPush(e.To, sink, send, level, iter); pushed > 0 {
			g.push(id, pushed)
			return pushed
		}
	}

	return 0
}
