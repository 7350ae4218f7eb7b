package model

import (
	"fmt"
	"strings"
)

// ValidationError reports input that violates the fixed schema:
// unknown day or priority, too many or duplicated choices, duplicated entities.
type ValidationError struct {
	EntityID string
	Day      Day
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.EntityID != "" {
		fmt.Fprintf(&b, " for entity %q", e.EntityID)
	}
	if e.Day != "" {
		fmt.Fprintf(&b, " on %s", e.Day)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// ValidateEntity checks a single entity against the schema
func ValidateEntity(e Entity) error {
	if strings.TrimSpace(e.ID) == "" {
		return &ValidationError{Field: "id", Reason: "entity id is empty"}
	}
	if !e.Priority.IsValid() {
		return &ValidationError{EntityID: e.ID, Field: "priority", Reason: fmt.Sprintf("unknown priority %d", int(e.Priority))}
	}

	seenDays := make(map[Day]bool, len(e.Days))
	for _, dp := range e.Days {
		if !dp.Day.IsValid() {
			return &ValidationError{EntityID: e.ID, Day: dp.Day, Field: "day", Reason: "unknown day"}
		}
		if seenDays[dp.Day] {
			return &ValidationError{EntityID: e.ID, Day: dp.Day, Field: "day", Reason: "day listed more than once"}
		}
		seenDays[dp.Day] = true

		if len(dp.Choices) > MaxChoices {
			return &ValidationError{
				EntityID: e.ID,
				Day:      dp.Day,
				Field:    "preferences",
				Reason:   fmt.Sprintf("%d preferences given, at most %d allowed", len(dp.Choices), MaxChoices),
			}
		}

		seenChoices := make(map[string]bool, len(dp.Choices))
		for i, choice := range dp.Choices {
			if strings.TrimSpace(choice) == "" {
				return &ValidationError{EntityID: e.ID, Day: dp.Day, Field: "preferences", Reason: fmt.Sprintf("%s preference is empty", Rank(i))}
			}
			if seenChoices[choice] {
				return &ValidationError{EntityID: e.ID, Day: dp.Day, Field: "preferences", Reason: fmt.Sprintf("%q listed more than once", choice)}
			}
			seenChoices[choice] = true
		}
	}

	return nil
}

// ValidateEntities checks every entity and that entity IDs are unique.
// Returns the first violation found.
func ValidateEntities(entities []Entity) error {
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		if err := ValidateEntity(e); err != nil {
			return err
		}
		if seen[e.ID] {
			return &ValidationError{EntityID: e.ID, Field: "id", Reason: "entity listed more than once"}
		}
		seen[e.ID] = true
	}
	return nil
}
