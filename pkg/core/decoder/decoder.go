package decoder

import (
	"fmt"

	"github.com/jakechorley/activity-assignment/pkg/core/flow"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/network"
)

// Decode reads the optimized flow of a day network back into one assignment per entity-day.
//
// An entity-day is assigned to the resource whose choice edge carries flow 1.
// If no choice edge carries flow the entity-day is unassigned. More than one
// flowing choice edge, a fractional or negative flow, or a resource holding
// more entities than its capacity is returned as a *flow.InvariantError.
func Decode(net *network.Network) ([]model.Assignment, error) {
	assignments := make([]model.Assignment, 0, len(net.EntityDays))
	counts := make(map[string]int, len(net.Resources))

	for _, ed := range net.EntityDays {
		assignment := model.Assignment{
			EntityID: ed.EntityID,
			Priority: ed.Priority,
			Day:      net.Day,
			Rank:     model.RankNone,
		}

		for _, choice := range ed.Choices {
			f := net.Graph.Flow(choice.Edge)
			switch f {
			case 0:
				continue
			case 1:
			default:
				return nil, &flow.InvariantError{
					Invariant: "integral",
					Detail:    fmt.Sprintf("%s on %s carries flow %d toward %s", ed.EntityID, net.Day, f, choice.Resource),
				}
			}

			if assignment.Assigned() {
				return nil, &flow.InvariantError{
					Invariant: "one-per-day",
					Detail:    fmt.Sprintf("%s on %s assigned to both %s and %s", ed.EntityID, net.Day, assignment.Resource, choice.Resource),
				}
			}
			assignment.Resource = choice.Resource
			assignment.Rank = choice.Rank
			counts[choice.Resource]++
		}

		assignments = append(assignments, assignment)
	}

	for _, res := range net.Resources {
		if counts[res.Instance.Name] > res.Capacity {
			return nil, &flow.InvariantError{
				Invariant: "capacity",
				Detail:    fmt.Sprintf("%s holds %d entities with capacity %d", res.Instance, counts[res.Instance.Name], res.Capacity),
			}
		}
	}

	return assignments, nil
}
