package commands

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/services"
	"github.com/jakechorley/activity-assignment/pkg/core/stats"
)

const ruleWidth = 80

// PrintReport writes the human-readable summary of an assignment run
func PrintReport(w io.Writer, result *services.AssignResult) {
	report := result.Outcome.Report
	prefs := preferenceIndex(result.Entities)

	printHighPriority(w, report, prefs)
	printParticipation(w, report)
	printSatisfaction(w, report)
	printUnassigned(w, report)

	fmt.Fprintf(w, "\nAssigned %d of %d student-days in %s\n", report.Assigned(), report.Overall.Total, result.Outcome.Elapsed)
}

type entityDayKey struct {
	entityID string
	day      model.Day
}

func preferenceIndex(entities []model.Entity) map[entityDayKey][]string {
	index := make(map[entityDayKey][]string)
	for _, entity := range entities {
		for _, dp := range entity.Days {
			index[entityDayKey{entity.ID, dp.Day}] = dp.Choices
		}
	}
	return index
}

func printHighPriority(w io.Writer, report stats.Report, prefs map[entityDayKey][]string) {
	var rows []stats.EntityOutcome
	for _, outcome := range report.Entities {
		if outcome.Priority == model.PriorityHigh {
			rows = append(rows, outcome)
		}
	}
	slices.SortStableFunc(rows, func(a, b stats.EntityOutcome) int {
		return cmp.Or(cmp.Compare(a.EntityID, b.EntityID), cmp.Compare(a.Day.Index(), b.Day.Index()))
	})

	fmt.Fprintf(w, "\nHigh Priority Student Assignments:\n")
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "%-10s | %-5s | %-20s | %-6s | %s\n", "Student", "Day", "Assigned", "Was", "Preferences")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))

	for _, row := range rows {
		assigned := row.Resource
		if assigned == "" {
			assigned = "-"
		}
		fmt.Fprintf(w, "%-10s | %-5s | %-20s | %-6s | %s\n",
			row.EntityID, row.Day, assigned, row.Rank, formatChoices(prefs[entityDayKey{row.EntityID, row.Day}]))
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(none)")
	}
}

func printParticipation(w io.Writer, report stats.Report) {
	fmt.Fprintf(w, "\nActivity Participation Counts:\n")
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "%-5s | %-30s | %s\n", "Day", "Activity", "Count")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))

	for _, row := range report.ActivityCounts() {
		fmt.Fprintf(w, "%-5s | %-30s | %d\n", row.Day, row.Resource, row.Count)
	}
}

func printSatisfaction(w io.Writer, report stats.Report) {
	fmt.Fprintf(w, "\nOverall Preference Satisfaction:\n")
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	printSatisfactionLines(w, report.Overall)

	fmt.Fprintf(w, "\nSatisfaction by Priority:\n")
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	for _, tier := range model.Priorities() {
		s := report.ByPriority[tier]
		if s.Total == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d student-days):\n", strings.ToUpper(tier.String()), s.Total)
		printSatisfactionLines(w, s)
	}
}

func printSatisfactionLines(w io.Writer, s stats.Satisfaction) {
	for _, rank := range append(model.Ranks(), model.RankNone) {
		fmt.Fprintf(w, "  %-5s %4d (%5.1f%%)\n", rank.String()+":", s.Counts[rank], s.Rate(rank)*100)
	}
}

func printUnassigned(w io.Writer, report stats.Report) {
	if len(report.Unassigned) == 0 {
		return
	}

	fmt.Fprintf(w, "\nUnassigned Student-Days (%d):\n", len(report.Unassigned))
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	for _, ed := range report.Unassigned {
		fmt.Fprintf(w, "  %-10s %-5s %-6s %s\n", ed.EntityID, ed.Day, ed.Priority, formatChoices(ed.Choices))
	}
}

// formatChoices renders a preference list as "1:Chess, 2:Art"
func formatChoices(choices []string) string {
	if len(choices) == 0 {
		return "(no preferences)"
	}
	parts := make([]string, len(choices))
	for i, choice := range choices {
		parts[i] = fmt.Sprintf("%d:%s", i+1, choice)
	}
	return strings.Join(parts, ", ")
}
