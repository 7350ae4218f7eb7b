package flow

import (
	"container/heap"
	"context"
	"fmt"
	"math"
)

const infCost = math.MaxInt64 / 4

// Result is the outcome of a flow computation
type Result struct {
	Flow int
	Cost int64
}

// MinCostMaxFlow pushes the maximum possible flow from source to sink and,
// among all maximum flows, returns one of minimum total cost.
//
// Steps:
//  1. Bellman-Ford from source for initial potentials (negative edge costs are
//     allowed provided there is no negative cycle).
//  2. Repeat: Dijkstra on reduced costs cost(u,v) + pot[u] - pot[v], which are
//     non-negative on every residual edge; stop if the sink is unreachable.
//  3. Fold distances into potentials and augment along the shortest path by its
//     bottleneck residual capacity.
//
// Flow already present on the graph is kept and extended.
func (g *Graph) MinCostMaxFlow(ctx context.Context, source, sink int) (Result, error) {
	if err := g.checkTerminals(source, sink); err != nil {
		return Result{}, err
	}

	n := len(g.adj)
	potential, err := g.initialPotentials(source)
	if err != nil {
		return Result{}, err
	}

	var result Result
	dist := make([]int64, n)
	prevEdge := make([]int, n)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		g.shortestPaths(source, potential, dist, prevEdge)
		if dist[sink] >= infCost {
			break
		}

		for v := 0; v < n; v++ {
			if dist[v] < infCost {
				potential[v] += dist[v]
			}
		}

		// Bottleneck along the path
		bottleneck := math.MaxInt
		for v := sink; v != source; v = g.edges[prevEdge[v]].From {
			if r := g.edges[prevEdge[v]].Residual(); r < bottleneck {
				bottleneck = r
			}
		}

		for v := sink; v != source; v = g.edges[prevEdge[v]].From {
			id := prevEdge[v]
			g.push(id, bottleneck)
			result.Cost += int64(bottleneck) * g.edges[id].Cost
		}
		result.Flow += bottleneck
	}

	return result, nil
}

// initialPotentials runs Bellman-Ford over residual edges from source.
// Unreachable nodes keep potential 0.
func (g *Graph) initialPotentials(source int) ([]int64, error) {
	n := len(g.adj)
	dist := make([]int64, n)
	for i := range dist {
		dist[i] = infCost
	}
	dist[source] = 0

	for round := 0; round < n; round++ {
		changed := false
		for id := range g.edges {
			e := g.edges[id]
			if e.Residual() <= 0 || dist[e.From] >= infCost {
				continue
			}
			if d := dist[e.From] + e.Cost; d < dist[e.To] {
				dist[e.To] = d
				changed = true
			}
		}
		if !changed {
			break
		}
		if round == n-1 {
			return nil, fmt.Errorf("flow: negative cost cycle reachable from source")
		}
	}

	for i := range dist {
		if dist[i] >= infCost {
			dist[i] = 0
		}
	}
	return dist, nil
}

// shortestPaths fills dist and prevEdge with Dijkstra distances on reduced costs
func (g *Graph) shortestPaths(source int, potential, dist []int64, prevEdge []int) {
	for i := range dist {
		dist[i] = infCost
		prevEdge[i] = -1
	}
	dist[source] = 0

	pq := &nodeQueue{{node: source, dist: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		u := item.node
		if item.dist > dist[u] {
			// stale entry
			continue
		}
		for _, id := range g.adj[u] {
			e := g.edges[id]
			if e.Residual() <= 0 {
				continue
			}
			reduced := e.Cost + potential[u] - potential[e.To]
			if d := dist[u] + reduced; d < dist[e.To] {
				dist[e.To] = d
				prevEdge[e.To] = id
				heap.Push(pq, queueItem{node: e.To, dist: d})
			}
		}
	}
}

func (g *Graph) checkTerminals(source, sink int) error {
	if !g.hasNode(source) {
		return fmt.Errorf("%w: source %d", ErrNodeNotFound, source)
	}
	if !g.hasNode(sink) {
		return fmt.Errorf("%w: sink %d", ErrNodeNotFound, sink)
	}
	if source == sink {
		return fmt.Errorf("flow: source and sink are the same node %d", source)
	}
	return nil
}

type queueItem struct {
	node int
	dist int64
}

// nodeQueue is a min-heap of queueItem ordered by dist, ties by node index
type nodeQueue []queueItem

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(queueItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
