package model

import (
	"fmt"
	"strings"
)

// Day is a weekday token on which activities are offered
type Day string

const (
	Monday    Day = "mon"
	Tuesday   Day = "tue"
	Wednesday Day = "wed"
	Thursday  Day = "thu"
	Friday    Day = "fri"
)

var dayOrder = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

// Days returns every supported day in week order
func Days() []Day {
	out := make([]Day, len(dayOrder))
	copy(out, dayOrder)
	return out
}

// Index returns the position of the day in the week, or -1 if the day is not supported
func (d Day) Index() int {
	for i, day := range dayOrder {
		if day == d {
			return i
		}
	}
	return -1
}

func (d Day) IsValid() bool {
	return d.Index() >= 0
}

// ParseDay parses a day token case-insensitively ("Mon", " tue ")
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("unknown day %q", s)
	}
	return d, nil
}

// Priority is the fairness tier of an entity
type Priority int

// Tiers are declared in precedence order: High claims contested resources first
const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
)

// Priorities returns all tiers in precedence order
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) IsValid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// Precedes reports whether p is served before other
func (p Priority) Precedes(other Priority) bool {
	return p < other
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority parses "high", "medium" or "low" case-insensitively
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// Rank is the position of a resource in a preference list
type Rank int

// MaxChoices is the number of ranked choices an entity may give per day
const MaxChoices = 3

const (
	RankFirst Rank = iota
	RankSecond
	RankThird
	// RankNone marks an entity-day where no preference was honoured
	RankNone
)

// Ranks returns the honourable ranks in order, excluding RankNone
func Ranks() []Rank {
	return []Rank{RankFirst, RankSecond, RankThird}
}

func (r Rank) String() string {
	switch r {
	case RankFirst:
		return "1st"
	case RankSecond:
		return "2nd"
	case RankThird:
		return "3rd"
	case RankNone:
		return "none"
	default:
		return fmt.Sprintf("rank(%d)", int(r))
	}
}

// DayPreferences is the ranked choice list an entity gave for a single day.
// Choices[0] is the first preference. Unspecified ranks are absent.
type DayPreferences struct {
	Day     Day
	Choices []string
}

// Choice returns the resource at the given rank, or "" if the rank was not given
func (dp DayPreferences) Choice(rank Rank) string {
	if rank < RankFirst || int(rank) >= len(dp.Choices) {
		return ""
	}
	return dp.Choices[rank]
}

// RankOf returns the rank a resource holds in the list, or RankNone
func (dp DayPreferences) RankOf(resource string) Rank {
	for i, choice := range dp.Choices {
		if choice == resource {
			return Rank(i)
		}
	}
	return RankNone
}

// Entity is a student (or any agent) needing one resource per day
type Entity struct {
	ID       string
	Priority Priority
	Days     []DayPreferences
}

// PreferencesFor returns the entity's preferences for a day
func (e Entity) PreferencesFor(day Day) (DayPreferences, bool) {
	for _, dp := range e.Days {
		if dp.Day == day {
			return dp, true
		}
	}
	return DayPreferences{}, false
}

// ResourceInstance is an activity offered on a specific day
type ResourceInstance struct {
	Name string
	Day  Day
}

func (ri ResourceInstance) String() string {
	return string(ri.Day) + "_" + ri.Name
}

// Assignment is the decoded outcome for one entity on one day.
// Resource is empty and Rank is RankNone when the entity was not assigned.
type Assignment struct {
	EntityID string
	Priority Priority
	Day      Day
	Resource string
	Rank     Rank
}

// Assigned returns true if a resource was given
func (a Assignment) Assigned() bool {
	return a.Resource != ""
}

// EntityDay identifies one entity on one day
type EntityDay struct {
	EntityID string
	Day      Day
}
