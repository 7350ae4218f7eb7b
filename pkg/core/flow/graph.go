// Package flow implements integral network flow on a residual graph:
// min-cost max-flow by successive shortest paths with potentials, and
// cost-blind max-flow by Dinic's algorithm.
//
// Every edge added with AddEdge is stored together with its reverse residual
// edge at the adjacent index (id ^ 1). Flow on the reverse edge is always the
// negation of the forward flow.
package flow

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when an edge or query names a node outside the graph
var ErrNodeNotFound = errors.New("flow: node not found")

// EdgeError is returned when an edge is added with a negative capacity
type EdgeError struct {
	From, To int
	Capacity int
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("flow: negative capacity on edge %d→%d: %d", e.From, e.To, e.Capacity)
}

// Edge is a snapshot of one directed edge
type Edge struct {
	From     int
	To       int
	Capacity int
	Cost     int64
	Flow     int
}

// Residual returns the capacity still available on the edge
func (e Edge) Residual() int {
	return e.Capacity - e.Flow
}

// Graph is a directed, capacitated, costed flow network
type Graph struct {
	edges []Edge
	adj   [][]int
}

// NewGraph creates a graph with n nodes numbered 0..n-1
func NewGraph(n int) *Graph {
	return &Graph{adj: make([][]int, n)}
}

// AddNode appends a node and returns its index
func (g *Graph) AddNode() int {
	g.adj = append(g.adj, nil)
	return len(g.adj) - 1
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of forward edges (reverse residual edges are not counted)
func (g *Graph) EdgeCount() int {
	return len(g.edges) / 2
}

// AddEdge adds a directed edge and returns its id
func (g *Graph) AddEdge(from, to, capacity int, cost int64) (int, error) {
	if !g.hasNode(from) || !g.hasNode(to) {
		return 0, fmt.Errorf("%w: edge %d→%d", ErrNodeNotFound, from, to)
	}
	if capacity < 0 {
		return 0, &EdgeError{From: from, To: to, Capacity: capacity}
	}

	id := len(g.edges)
	g.edges = append(g.edges,
		Edge{From: from, To: to, Capacity: capacity, Cost: cost},
		Edge{From: to, To: from, Capacity: 0, Cost: -cost},
	)
	g.adj[from] = append(g.adj[from], id)
	g.adj[to] = append(g.adj[to], id+1)

	return id, nil
}

// Edge returns a snapshot of the edge with the given id
func (g *Graph) Edge(id int) Edge {
	return g.edges[id]
}

// Flow returns the flow currently carried by the edge with the given id
func (g *Graph) Flow(id int) int {
	return g.edges[id].Flow
}

// OutEdges returns the ids of forward edges leaving a node, in insertion order
func (g *Graph) OutEdges(node int) []int {
	var out []int
	for _, id := range g.adj[node] {
		if id%2 == 0 {
			out = append(out, id)
		}
	}
	return out
}

// TotalCost returns the sum of flow*cost over all forward edges
func (g *Graph) TotalCost() int64 {
	var total int64
	for id := 0; id < len(g.edges); id += 2 {
		e := g.edges[id]
		total += int64(e.Flow) * e.Cost
	}
	return total
}

// push sends amount units along edge id and updates its reverse twin
func (g *Graph) push(id, amount int) {
	g.edges[id].Flow += amount
	g.edges[id^1].Flow -= amount
}

func (g *Graph) hasNode(n int) bool {
	return n >= 0 && n < len(g.adj)
}
