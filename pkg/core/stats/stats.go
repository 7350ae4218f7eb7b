// Package stats aggregates decoded assignments into participation counts and
// satisfaction breakdowns.
package stats

import (
	"slices"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
)

// Satisfaction counts how many entity-days got each rank
type Satisfaction struct {
	Counts map[model.Rank]int
	Total  int
}

func newSatisfaction() Satisfaction {
	counts := make(map[model.Rank]int, len(model.Ranks())+1)
	for _, rank := range append(model.Ranks(), model.RankNone) {
		counts[rank] = 0
	}
	return Satisfaction{Counts: counts}
}

func (s *Satisfaction) add(rank model.Rank) {
	s.Counts[rank]++
	s.Total++
}

// Rate returns the fraction of entity-days that got rank, or 0 when there are none
func (s Satisfaction) Rate(rank model.Rank) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Counts[rank]) / float64(s.Total)
}

// EntityOutcome is the rank honoured for one entity-day
type EntityOutcome struct {
	EntityID string
	Priority model.Priority
	Day      model.Day
	Resource string
	Rank     model.Rank
}

// EntityDay is an entity-day that received no resource
type EntityDay struct {
	EntityID string
	Priority model.Priority
	Day      model.Day
	Choices  []string
}

// ParticipationRow is one (day, resource) count
type ParticipationRow struct {
	Day      model.Day
	Resource string
	Count    int
}

// Report is the aggregated view of one assignment run
type Report struct {
	// Participation counts assigned entities per day and resource
	Participation map[model.Day]map[string]int

	// Entities holds one outcome per entity-day, in assignment order
	Entities []EntityOutcome

	Overall    Satisfaction
	ByPriority map[model.Priority]Satisfaction

	Unassigned []EntityDay
}

// Aggregate builds a Report from the decoded assignments. Entities supply the
// preference lists shown for unassigned entity-days.
func Aggregate(entities []model.Entity, assignments []model.Assignment) Report {
	byID := make(map[string]model.Entity, len(entities))
	for _, entity := range entities {
		byID[entity.ID] = entity
	}

	report := Report{
		Participation: make(map[model.Day]map[string]int),
		Entities:      make([]EntityOutcome, 0, len(assignments)),
		Overall:       newSatisfaction(),
		ByPriority:    make(map[model.Priority]Satisfaction, len(model.Priorities())),
	}
	for _, p := range model.Priorities() {
		report.ByPriority[p] = newSatisfaction()
	}

	for _, a := range assignments {
		report.Entities = append(report.Entities, EntityOutcome{
			EntityID: a.EntityID,
			Priority: a.Priority,
			Day:      a.Day,
			Resource: a.Resource,
			Rank:     a.Rank,
		})

		report.Overall.add(a.Rank)
		tier := report.ByPriority[a.Priority]
		tier.add(a.Rank)
		report.ByPriority[a.Priority] = tier

		if a.Assigned() {
			if report.Participation[a.Day] == nil {
				report.Participation[a.Day] = make(map[string]int)
			}
			report.Participation[a.Day][a.Resource]++
			continue
		}

		var choices []string
		if prefs, ok := byID[a.EntityID].PreferencesFor(a.Day); ok {
			choices = slices.Clone(prefs.Choices)
		}
		report.Unassigned = append(report.Unassigned, EntityDay{
			EntityID: a.EntityID,
			Priority: a.Priority,
			Day:      a.Day,
			Choices:  choices,
		})
	}

	return report
}

// ActivityCounts returns participation sorted by day order, then resource name
func (r Report) ActivityCounts() []ParticipationRow {
	var rows []ParticipationRow
	for _, day := range model.Days() {
		resources := r.Participation[day]
		names := make([]string, 0, len(resources))
		for name := range resources {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			rows = append(rows, ParticipationRow{Day: day, Resource: name, Count: resources[name]})
		}
	}
	return rows
}

// Assigned returns the number of entity-days that received a resource
func (r Report) Assigned() int {
	return r.Overall.Total - r.Overall.Counts[model.RankNone]
}
