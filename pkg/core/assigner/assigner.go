// Package assigner runs the assignment engine: it partitions entities by day,
// builds and solves one flow network per day, decodes the flows and aggregates
// the satisfaction report.
package assigner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/activity-assignment/pkg/core/decoder"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/network"
	"github.com/jakechorley/activity-assignment/pkg/core/stats"
)

// Strategy selects how each day is solved
type Strategy string

const (
	// StrategyMinCost solves each day with a single min-cost max-flow
	StrategyMinCost Strategy = "mincost"

	// StrategyTiered solves each day tier by tier and rank by rank with max-flow rounds
	StrategyTiered Strategy = "tiered"
)

// ParseStrategy parses a strategy name. Empty means StrategyMinCost.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyMinCost:
		return StrategyMinCost, nil
	case StrategyTiered:
		return StrategyTiered, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %s or %s)", s, StrategyMinCost, StrategyTiered)
	}
}

// AssignmentConfig is the input to Assign
type AssignmentConfig struct {
	Entities []model.Entity
	Capacity model.CapacityTable

	// Policy defaults to network.DefaultCostPolicy when left zero
	Policy network.CostPolicy

	// Catalog of known resources; unknown ones are reported per day
	Catalog []string

	Strategy Strategy

	// Parallel solves days concurrently
	Parallel bool
}

// DayOutcome describes how one day was solved
type DayOutcome struct {
	Day   model.Day
	Nodes int
	Edges int
	Flow  int

	// Cost is the total policy cost of the day's assignments
	Cost int64

	UnknownResources []string
}

// AssignmentOutcome is the result of one engine run
type AssignmentOutcome struct {
	// Assignments in day order, then entity input order
	Assignments []model.Assignment
	Report      stats.Report
	Days        []DayOutcome
	Elapsed     time.Duration
}

type dayResult struct {
	outcome     DayOutcome
	assignments []model.Assignment
}

// Assign runs the engine. Entities and the cost policy are validated first and
// a violation is returned as a *model.ValidationError. Oversubscription is not
// an error; it shows up as unassigned entity-days in the report.
func Assign(ctx context.Context, cfg AssignmentConfig) (*AssignmentOutcome, error) {
	start := time.Now()

	if err := model.ValidateEntities(cfg.Entities); err != nil {
		return nil, err
	}

	policy := cfg.Policy
	if policy.PriorityBias == nil {
		policy = network.DefaultCostPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Capacity.Validate(); err != nil {
		return nil, err
	}

	var solve func(context.Context, *network.Builder, model.Day, []model.Entity, model.CapacityTable) (dayResult, error)
	switch cfg.Strategy {
	case "", StrategyMinCost:
		solve = solveMinCost
	case StrategyTiered:
		solve = solveTiered
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}

	builder := network.NewBuilder(policy, cfg.Catalog)
	days := activeDays(cfg.Entities)
	results := make([]dayResult, len(days))

	if cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, day := range days {
			g.Go(func() error {
				res, err := solve(gctx, builder, day, cfg.Entities, cfg.Capacity)
				if err != nil {
					return fmt.Errorf("failed to solve %s: %w", day, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, day := range days {
			res, err := solve(ctx, builder, day, cfg.Entities, cfg.Capacity)
			if err != nil {
				return nil, fmt.Errorf("failed to solve %s: %w", day, err)
			}
			results[i] = res
		}
	}

	outcome := &AssignmentOutcome{
		Assignments: []model.Assignment{},
		Days:        make([]DayOutcome, 0, len(results)),
	}
	for _, res := range results {
		outcome.Assignments = append(outcome.Assignments, res.assignments...)
		outcome.Days = append(outcome.Days, res.outcome)
	}
	outcome.Report = stats.Aggregate(cfg.Entities, outcome.Assignments)
	outcome.Elapsed = time.Since(start)

	return outcome, nil
}

// activeDays returns the days any entity has preferences for, in day order
func activeDays(entities []model.Entity) []model.Day {
	seen := make(map[model.Day]bool)
	for _, entity := range entities {
		for _, prefs := range entity.Days {
			seen[prefs.Day] = true
		}
	}

	var days []model.Day
	for _, day := range model.Days() {
		if seen[day] {
			days = append(days, day)
		}
	}
	return days
}

// solveMinCost builds the full day network and runs one min-cost max-flow
func solveMinCost(ctx context.Context, builder *network.Builder, day model.Day, entities []model.Entity, capacity model.CapacityTable) (dayResult, error) {
	net, err := builder.Build(network.Request{Day: day, Entities: entities, Capacity: capacity})
	if err != nil {
		return dayResult{}, fmt.Errorf("failed to build network: %w", err)
	}

	res, err := net.Graph.MinCostMaxFlow(ctx, net.Source, net.Sink)
	if err != nil {
		return dayResult{}, fmt.Errorf("failed to optimize network: %w", err)
	}
	if err := net.Graph.Verify(net.Source, net.Sink); err != nil {
		return dayResult{}, err
	}

	assignments, err := decoder.Decode(net)
	if err != nil {
		return dayResult{}, err
	}

	return dayResult{
		outcome: DayOutcome{
			Day:              day,
			Nodes:            net.Graph.NodeCount(),
			Edges:            net.Graph.EdgeCount(),
			Flow:             res.Flow,
			Cost:             policyCost(builder.Policy, assignments),
			UnknownResources: net.UnknownResources,
		},
		assignments: assignments,
	}, nil
}

func policyCost(policy network.CostPolicy, assignments []model.Assignment) int64 {
	var total int64
	for _, a := range assignments {
		if a.Assigned() {
			total += policy.Cost(a.Priority, a.Rank)
		}
	}
	return total
}
