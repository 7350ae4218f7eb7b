package network

import (
	"fmt"
	"slices"

	"github.com/jakechorley/activity-assignment/pkg/core/flow"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
)

// CapacityLookup provides the declared capacity of a resource instance
type CapacityLookup interface {
	Capacity(instance model.ResourceInstance) int
}

// ChoiceEdge is an entity-day → resource edge for one preference rank.
// Cost is the policy cost; the graph edge carries Cost*CostScale + tie-break.
type ChoiceEdge struct {
	Rank     model.Rank
	Resource string
	Edge     int
	Cost     int64
}

// EntityDayNode is the node for one entity on the network's day
type EntityDayNode struct {
	EntityID   string
	Priority   model.Priority
	Node       int
	SourceEdge int
	Choices    []ChoiceEdge
}

// ResourceNode is the node for one resource instance on the network's day
type ResourceNode struct {
	Instance model.ResourceInstance
	Node     int
	SinkEdge int
	Capacity int
}

// Network is the flow network for a single day
type Network struct {
	Day    model.Day
	Graph  *flow.Graph
	Source int
	Sink   int

	// EntityDays in input order
	EntityDays []EntityDayNode

	// Resources in first-seen order
	Resources []ResourceNode

	// UnknownResources lists resources named in preferences but absent from the catalog
	UnknownResources []string

	// CostScale multiplies policy costs on graph edges. It exceeds the largest
	// possible total tie-break, so policy cost always decides first.
	CostScale int64

	resourceIndex map[string]int
}

// Resource looks up a resource node by name
func (n *Network) Resource(name string) (ResourceNode, bool) {
	idx, ok := n.resourceIndex[name]
	if !ok {
		return ResourceNode{}, false
	}
	return n.Resources[idx], true
}

// Request describes the network to build
type Request struct {
	Day model.Day

	// Entities to include. Entities without preferences for Day are skipped.
	Entities []model.Entity

	// Ranks restricts which preference ranks get edges. Empty means all ranks.
	Ranks []model.Rank

	// Capacity supplies the resource→sink capacities
	Capacity CapacityLookup
}

// Builder constructs per-day flow networks
type Builder struct {
	Policy CostPolicy

	// Catalog of known resource names. When empty every resource is considered known.
	Catalog map[string]bool
}

// NewBuilder creates a builder with the given cost policy and resource catalog
func NewBuilder(policy CostPolicy, catalog []string) *Builder {
	b := &Builder{Policy: policy}
	if len(catalog) > 0 {
		b.Catalog = make(map[string]bool, len(catalog))
		for _, name := range catalog {
			b.Catalog[name] = true
		}
	}
	return b
}

// Build constructs the network for req.Day:
// source → entity-day (cap 1, cost 0) → resource (cap 1, cost by policy) → sink (cap = capacity, cost 0)
//
// Graph edge costs are Policy.Cost*CostScale + Policy.TieBreak, which orders
// solutions by policy cost first and lets the tie-break settle equal-cost swaps
// in favour of the higher tier.
func (b *Builder) Build(req Request) (*Network, error) {
	if req.Capacity == nil {
		return nil, fmt.Errorf("network: capacity lookup is required")
	}

	entityDays := 0
	for _, entity := range req.Entities {
		if _, ok := entity.PreferencesFor(req.Day); ok {
			entityDays++
		}
	}

	g := flow.NewGraph(0)
	net := &Network{
		Day:           req.Day,
		Graph:         g,
		Source:        g.AddNode(),
		Sink:          g.AddNode(),
		CostScale:     int64(entityDays)*maxTieBreak() + 1,
		resourceIndex: make(map[string]int),
	}

	for _, entity := range req.Entities {
		prefs, ok := entity.PreferencesFor(req.Day)
		if !ok {
			continue
		}

		node := g.AddNode()
		sourceEdge, err := g.AddEdge(net.Source, node, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to add source edge for %s: %w", entity.ID, err)
		}

		entityNode := EntityDayNode{
			EntityID:   entity.ID,
			Priority:   entity.Priority,
			Node:       node,
			SourceEdge: sourceEdge,
		}

		for i, resource := range prefs.Choices {
			rank := model.Rank(i)
			if len(req.Ranks) > 0 && !slices.Contains(req.Ranks, rank) {
				continue
			}

			resourceNode := b.resourceNode(net, resource)
			cost := b.Policy.Cost(entity.Priority, rank)
			edgeCost := cost*net.CostScale + b.Policy.TieBreak(entity.Priority, rank)
			edge, err := g.AddEdge(node, resourceNode, 1, edgeCost)
			if err != nil {
				return nil, fmt.Errorf("failed to add choice edge for %s: %w", entity.ID, err)
			}
			entityNode.Choices = append(entityNode.Choices, ChoiceEdge{Rank: rank, Resource: resource, Edge: edge, Cost: cost})
		}

		net.EntityDays = append(net.EntityDays, entityNode)
	}

	// Sink edges are added once every resource of the day has been seen
	for i := range net.Resources {
		res := &net.Resources[i]
		res.Capacity = req.Capacity.Capacity(res.Instance)
		sinkEdge, err := g.AddEdge(res.Node, net.Sink, res.Capacity, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to add sink edge for %s: %w", res.Instance, err)
		}
		res.SinkEdge = sinkEdge
	}

	return net, nil
}

// resourceNode returns the node for a resource, creating it on first sight
func (b *Builder) resourceNode(net *Network, name string) int {
	if idx, ok := net.resourceIndex[name]; ok {
		return net.Resources[idx].Node
	}

	node := net.Graph.AddNode()
	net.resourceIndex[name] = len(net.Resources)
	net.Resources = append(net.Resources, ResourceNode{
		Instance: model.ResourceInstance{Name: name, Day: net.Day},
		Node:     node,
	})

	if b.Catalog != nil && !b.Catalog[name] {
		net.UnknownResources = append(net.UnknownResources, name)
	}

	return node
}
