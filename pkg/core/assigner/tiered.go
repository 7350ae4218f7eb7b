package assigner

import (
	"context"
	"fmt"
	"slices"

	"github.com/jakechorley/activity-assignment/pkg/core/decoder"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/network"
)

// remainingCapacity is a capacity lookup that subtracts seats already committed
type remainingCapacity struct {
	base network.CapacityLookup
	used map[model.ResourceInstance]int
}

func (r remainingCapacity) Capacity(instance model.ResourceInstance) int {
	return max(0, r.base.Capacity(instance)-r.used[instance])
}

// solveTiered runs one max-flow round per (tier, rank) pair in precedence
// order. Each round only sees entity-days of that tier still unassigned, only
// their choice at that rank, and only the capacity earlier rounds left over.
// A lower tier can never displace a higher one; costs play no part.
func solveTiered(ctx context.Context, builder *network.Builder, day model.Day, entities []model.Entity, capacity model.CapacityTable) (dayResult, error) {
	remaining := remainingCapacity{base: capacity, used: make(map[model.ResourceInstance]int)}
	committed := make(map[string]model.Assignment)
	outcome := DayOutcome{Day: day}

	for _, tier := range model.Priorities() {
		for _, rank := range model.Ranks() {
			var round []model.Entity
			for _, entity := range entities {
				if entity.Priority != tier {
					continue
				}
				if _, done := committed[entity.ID]; done {
					continue
				}
				prefs, ok := entity.PreferencesFor(day)
				if !ok || prefs.Choice(rank) == "" {
					continue
				}
				round = append(round, entity)
			}
			if len(round) == 0 {
				continue
			}

			net, err := builder.Build(network.Request{
				Day:      day,
				Entities: round,
				Ranks:    []model.Rank{rank},
				Capacity: remaining,
			})
			if err != nil {
				return dayResult{}, fmt.Errorf("failed to build %s round %s: %w", tier, rank, err)
			}

			flowed, err := net.Graph.MaxFlow(ctx, net.Source, net.Sink)
			if err != nil {
				return dayResult{}, fmt.Errorf("failed to optimize %s round %s: %w", tier, rank, err)
			}
			if err := net.Graph.Verify(net.Source, net.Sink); err != nil {
				return dayResult{}, err
			}

			assignments, err := decoder.Decode(net)
			if err != nil {
				return dayResult{}, err
			}
			for _, a := range assignments {
				if !a.Assigned() {
					continue
				}
				committed[a.EntityID] = a
				remaining.used[model.ResourceInstance{Name: a.Resource, Day: day}]++
			}

			outcome.Nodes += net.Graph.NodeCount()
			outcome.Edges += net.Graph.EdgeCount()
			outcome.Flow += flowed
			for _, name := range net.UnknownResources {
				if !slices.Contains(outcome.UnknownResources, name) {
					outcome.UnknownResources = append(outcome.UnknownResources, name)
				}
			}
		}
	}

	var assignments []model.Assignment
	for _, entity := range entities {
		if _, ok := entity.PreferencesFor(day); !ok {
			continue
		}
		if a, ok := committed[entity.ID]; ok {
			assignments = append(assignments, a)
			continue
		}
		assignments = append(assignments, model.Assignment{
			EntityID: entity.ID,
			Priority: entity.Priority,
			Day:      day,
			Rank:     model.RankNone,
		})
	}
	outcome.Cost = policyCost(builder.Policy, assignments)

	return dayResult{outcome: outcome, assignments: assignments}, nil
}
