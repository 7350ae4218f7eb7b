package assigner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/network"
)

func entity(id string, priority model.Priority, day model.Day, choices ...string) model.Entity {
	return model.Entity{ID: id, Priority: priority, Days: []model.DayPreferences{{Day: day, Choices: choices}}}
}

func capacities(def int, overrides map[string]int, day model.Day) model.CapacityTable {
	ct := model.NewCapacityTable(def)
	for name, c := range overrides {
		ct.Set(model.ResourceInstance{Name: name, Day: day}, c)
	}
	return ct
}

func find(t *testing.T, assignments []model.Assignment, id string, day model.Day) model.Assignment {
	t.Helper()
	for _, a := range assignments {
		if a.EntityID == id && a.Day == day {
			return a
		}
	}
	t.Fatalf("no assignment for %s on %s", id, day)
	return model.Assignment{}
}

// schoolWeek generates a deterministic oversubscribed workload across all days
func schoolWeek() ([]model.Entity, model.CapacityTable) {
	activities := []string{"Chess", "Art", "Soccer", "Drama", "Robotics"}
	var entities []model.Entity
	for i := 0; i < 40; i++ {
		e := model.Entity{ID: fmt.Sprintf("S%02d", i), Priority: model.Priorities()[i%3]}
		for d, day := range model.Days() {
			if (i+d)%4 == 0 {
				continue
			}
			var choices []string
			for _, idx := range []int{(i + d) % 5, (i + 2*d + 1) % 5, (i + 3*d + 3) % 5} {
				if !slices.Contains(choices, activities[idx]) {
					choices = append(choices, activities[idx])
				}
			}
			e.Days = append(e.Days, model.DayPreferences{Day: day, Choices: choices})
		}
		entities = append(entities, e)
	}

	ct := model.NewCapacityTable(3)
	ct.Set(model.ResourceInstance{Name: "Chess", Day: model.Monday}, 1)
	ct.Set(model.ResourceInstance{Name: "Robotics", Day: model.Wednesday}, 0)
	return entities, ct
}

func strategies() []Strategy {
	return []Strategy{StrategyMinCost, StrategyTiered}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyMinCost, s)

	s, err = ParseStrategy(" Tiered ")
	require.NoError(t, err)
	assert.Equal(t, StrategyTiered, s)

	_, err = ParseStrategy("greedy")
	assert.Error(t, err)
}

func TestAssign_HigherTierWinsContestedResource(t *testing.T) {
	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := AssignmentConfig{
				Entities: []model.Entity{
					entity("LOW", model.PriorityLow, model.Monday, "R", "Art"),
					entity("HIGH", model.PriorityHigh, model.Monday, "R", "Art"),
				},
				Capacity: capacities(5, map[string]int{"R": 1}, model.Monday),
				Strategy: strategy,
			}

			outcome, err := Assign(context.Background(), cfg)
			require.NoError(t, err)

			high := find(t, outcome.Assignments, "HIGH", model.Monday)
			low := find(t, outcome.Assignments, "LOW", model.Monday)
			assert.Equal(t, "R", high.Resource)
			assert.Equal(t, model.RankFirst, high.Rank)
			assert.Equal(t, "Art", low.Resource)
			assert.Equal(t, model.RankSecond, low.Rank)
		})
	}
}

func TestAssign_LowerTierUnassignedWithoutAlternative(t *testing.T) {
	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := AssignmentConfig{
				Entities: []model.Entity{
					entity("LOW", model.PriorityLow, model.Monday, "R"),
					entity("HIGH", model.PriorityHigh, model.Monday, "R"),
				},
				Capacity: capacities(1, nil, model.Monday),
				Strategy: strategy,
			}

			outcome, err := Assign(context.Background(), cfg)
			require.NoError(t, err)

			assert.Equal(t, "R", find(t, outcome.Assignments, "HIGH", model.Monday).Resource)
			assert.False(t, find(t, outcome.Assignments, "LOW", model.Monday).Assigned())
			require.Len(t, outcome.Report.Unassigned, 1)
			assert.Equal(t, "LOW", outcome.Report.Unassigned[0].EntityID)
		})
	}
}

func TestAssign_ZeroCapacityLeavesUnassigned(t *testing.T) {
	cfg := AssignmentConfig{
		Entities: []model.Entity{entity("S1", model.PriorityHigh, model.Tuesday, "Chess")},
		Capacity: capacities(10, map[string]int{"Chess": 0}, model.Tuesday),
	}

	outcome, err := Assign(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, outcome.Assignments, 1)
	assert.False(t, outcome.Assignments[0].Assigned())
	assert.Equal(t, 0, outcome.Days[0].Flow)
}

func TestAssign_AllChoicesFullCountsAsNone(t *testing.T) {
	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := AssignmentConfig{
				Entities: []model.Entity{entity("S1", model.PriorityMedium, model.Thursday, "Chess", "Art", "Soccer")},
				Capacity: capacities(0, nil, model.Thursday),
				Strategy: strategy,
			}

			outcome, err := Assign(context.Background(), cfg)
			require.NoError(t, err)

			assert.False(t, outcome.Assignments[0].Assigned())
			assert.Equal(t, 1, outcome.Report.Overall.Counts[model.RankNone])
			assert.InDelta(t, 1.0, outcome.Report.ByPriority[model.PriorityMedium].Rate(model.RankNone), 1e-9)
		})
	}
}

func TestAssign_AmpleCapacityGivesEveryoneFirstChoice(t *testing.T) {
	entities, _ := schoolWeek()

	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			outcome, err := Assign(context.Background(), AssignmentConfig{
				Entities: entities,
				Capacity: model.NewCapacityTable(len(entities)),
				Strategy: strategy,
			})
			require.NoError(t, err)

			for _, a := range outcome.Assignments {
				assert.Equal(t, model.RankFirst, a.Rank, "%s on %s", a.EntityID, a.Day)
			}
			assert.InDelta(t, 1.0, outcome.Report.Overall.Rate(model.RankFirst), 1e-9)
			assert.Empty(t, outcome.Report.Unassigned)
		})
	}
}

func TestAssign_CapacityAndOnePerDay(t *testing.T) {
	entities, ct := schoolWeek()

	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			outcome, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: ct, Strategy: strategy})
			require.NoError(t, err)

			seen := make(map[model.EntityDay]bool)
			for _, a := range outcome.Assignments {
				key := model.EntityDay{EntityID: a.EntityID, Day: a.Day}
				assert.False(t, seen[key], "%s assigned twice on %s", a.EntityID, a.Day)
				seen[key] = true
			}

			for day, resources := range outcome.Report.Participation {
				for name, count := range resources {
					assert.LessOrEqual(t, count, ct.Capacity(model.ResourceInstance{Name: name, Day: day}), "%s on %s", name, day)
				}
			}
			assert.Zero(t, outcome.Report.Participation[model.Wednesday]["Robotics"])
		})
	}
}

func TestAssign_SpareFirstChoiceIsAlwaysTaken(t *testing.T) {
	entities, ct := schoolWeek()

	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			outcome, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: ct, Strategy: strategy})
			require.NoError(t, err)

			byID := make(map[string]model.Entity)
			for _, e := range entities {
				byID[e.ID] = e
			}

			for _, a := range outcome.Assignments {
				if a.Rank == model.RankFirst {
					continue
				}
				prefs, _ := byID[a.EntityID].PreferencesFor(a.Day)
				first := prefs.Choice(model.RankFirst)
				if first == "" {
					continue
				}
				instance := model.ResourceInstance{Name: first, Day: a.Day}
				assert.Equal(t, ct.Capacity(instance), outcome.Report.Participation[a.Day][first],
					"%s got %s on %s while %s had room", a.EntityID, a.Rank, a.Day, first)
			}
		})
	}
}

func TestAssign_IsDeterministic(t *testing.T) {
	entities, ct := schoolWeek()
	cfg := AssignmentConfig{Entities: entities, Capacity: ct}

	first, err := Assign(context.Background(), cfg)
	require.NoError(t, err)
	second, err := Assign(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, first.Days, second.Days)
}

func TestAssign_ParallelMatchesSequential(t *testing.T) {
	entities, ct := schoolWeek()

	for _, strategy := range strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			sequential, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: ct, Strategy: strategy})
			require.NoError(t, err)
			parallel, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: ct, Strategy: strategy, Parallel: true})
			require.NoError(t, err)

			assert.Equal(t, sequential.Assignments, parallel.Assignments)
			assert.Equal(t, sequential.Report, parallel.Report)
			assert.Equal(t, sequential.Days, parallel.Days)
		})
	}
}

func TestAssign_OrdersByDayThenInput(t *testing.T) {
	entities := []model.Entity{
		{ID: "B", Priority: model.PriorityLow, Days: []model.DayPreferences{
			{Day: model.Friday, Choices: []string{"Art"}},
			{Day: model.Monday, Choices: []string{"Art"}},
		}},
		entity("A", model.PriorityHigh, model.Monday, "Chess"),
	}

	outcome, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: model.NewCapacityTable(2)})
	require.NoError(t, err)

	var order []string
	for _, a := range outcome.Assignments {
		order = append(order, a.EntityID+"/"+string(a.Day))
	}
	assert.Equal(t, []string{"B/mon", "A/mon", "B/fri"}, order)

	require.Len(t, outcome.Days, 2)
	assert.Equal(t, model.Monday, outcome.Days[0].Day)
	assert.Equal(t, model.Friday, outcome.Days[1].Day)
}

func TestAssign_TieredFavoursTierOverFlow(t *testing.T) {
	entities := []model.Entity{
		entity("HIGH", model.PriorityHigh, model.Monday, "A", "B"),
		entity("MED", model.PriorityMedium, model.Monday, "A"),
	}
	ct := capacities(1, nil, model.Monday)

	// min-cost maximizes flow first, so HIGH moves to its 2nd choice
	mincost, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: ct})
	require.NoError(t, err)
	assert.Equal(t, "B", find(t, mincost.Assignments, "HIGH", model.Monday).Resource)
	assert.Equal(t, "A", find(t, mincost.Assignments, "MED", model.Monday).Resource)
	assert.Equal(t, 2, mincost.Days[0].Flow)

	// tiered settles HIGH before MED is considered
	tiered, err := Assign(context.Background(), AssignmentConfig{Entities: entities, Capacity: ct, Strategy: StrategyTiered})
	require.NoError(t, err)
	assert.Equal(t, "A", find(t, tiered.Assignments, "HIGH", model.Monday).Resource)
	assert.False(t, find(t, tiered.Assignments, "MED", model.Monday).Assigned())
	assert.Equal(t, 1, tiered.Days[0].Flow)
}

func TestAssign_DayOutcome(t *testing.T) {
	cfg := AssignmentConfig{
		Entities: []model.Entity{
			entity("S1", model.PriorityHigh, model.Monday, "Chess", "Art"),
			entity("S2", model.PriorityMedium, model.Monday, "Chess", "Loom"),
		},
		Capacity: capacities(1, nil, model.Monday),
		Catalog:  []string{"Chess", "Art"},
	}

	outcome, err := Assign(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, outcome.Days, 1)
	day := outcome.Days[0]
	// source + sink + 2 entity-days + Chess, Art, Loom
	assert.Equal(t, 7, day.Nodes)
	// 2 source + 4 choice + 3 sink
	assert.Equal(t, 9, day.Edges)
	assert.Equal(t, 2, day.Flow)
	// S1 Chess (0) + S2 Loom (11)
	assert.Equal(t, int64(11), day.Cost)
	assert.Equal(t, []string{"Loom"}, day.UnknownResources)
}

func TestAssign_EmptyInput(t *testing.T) {
	outcome, err := Assign(context.Background(), AssignmentConfig{Capacity: model.NewCapacityTable(15)})
	require.NoError(t, err)

	assert.Empty(t, outcome.Assignments)
	assert.Empty(t, outcome.Days)
	assert.Equal(t, 0, outcome.Report.Overall.Total)
	assert.Empty(t, outcome.Report.Unassigned)
}

func TestAssign_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AssignmentConfig
	}{
		{
			name: "too many choices",
			cfg: AssignmentConfig{
				Entities: []model.Entity{entity("S1", model.PriorityHigh, model.Monday, "A", "B", "C", "D")},
				Capacity: model.NewCapacityTable(1),
			},
		},
		{
			name: "duplicate choice",
			cfg: AssignmentConfig{
				Entities: []model.Entity{entity("S1", model.PriorityHigh, model.Monday, "A", "A")},
				Capacity: model.NewCapacityTable(1),
			},
		},
		{
			name: "unknown day",
			cfg: AssignmentConfig{
				Entities: []model.Entity{entity("S1", model.PriorityHigh, model.Day("sat"), "A")},
				Capacity: model.NewCapacityTable(1),
			},
		},
		{
			name: "bad cost policy",
			cfg: AssignmentConfig{
				Entities: []model.Entity{entity("S1", model.PriorityHigh, model.Monday, "A")},
				Capacity: model.NewCapacityTable(1),
				Policy: network.CostPolicy{
					RankCosts:    [3]int64{0, 1, 2},
					PriorityBias: map[model.Priority]int64{model.PriorityHigh: 0, model.PriorityMedium: 1, model.PriorityLow: 2},
				},
			},
		},
		{
			name: "negative capacity",
			cfg: AssignmentConfig{
				Entities: []model.Entity{entity("S1", model.PriorityHigh, model.Monday, "A")},
				Capacity: model.NewCapacityTable(-1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assign(context.Background(), tt.cfg)
			var verr *model.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}

func TestAssign_UnknownStrategy(t *testing.T) {
	_, err := Assign(context.Background(), AssignmentConfig{Strategy: "greedy"})
	assert.Error(t, err)
}

func TestAssign_CancelledContext(t *testing.T) {
	entities, ct := schoolWeek()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{false, true} {
		_, err := Assign(ctx, AssignmentConfig{Entities: entities, Capacity: ct, Parallel: parallel})
		assert.ErrorIs(t, err, context.Canceled)
	}
}
