// Package loader reads student preference tables into domain entities.
//
// The table has a header row naming the columns student_id, priority, day,
// 1st_preference, 2nd_preference and 3rd_preference. Column order is free and
// unknown columns are ignored. Each data row holds one student's ranked
// choices for one day; a student's rows are grouped in first-seen order.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
)

// PreferenceRow is one data row of the preference table
type PreferenceRow struct {
	StudentID string `header:"student_id" validate:"required"`
	Priority  string `header:"priority" validate:"omitempty,oneof=high medium low"`
	Day       string `header:"day" validate:"required,oneof=mon tue wed thu fri"`
	First     string `header:"1st_preference"`
	Second    string `header:"2nd_preference" validate:"excluded_without=First"`
	Third     string `header:"3rd_preference" validate:"excluded_without=Second"`
}

// RowError reports a problem with one row. Row is 1-based and counts the header.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ErrMissingColumn is returned when a required header is absent
var ErrMissingColumn = errors.New("missing required column")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadCSV reads entities from a CSV file
func LoadCSV(path string) ([]model.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences file: %w", err)
	}
	defer f.Close()

	entities, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return entities, nil
}

// ParseCSV reads entities from CSV data
func ParseCSV(r io.Reader) ([]model.Entity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return FromRecords(records)
}

// FromRecords converts a header row plus data rows into validated entities.
// Blank rows are skipped. A missing priority defaults to medium.
func FromRecords(records [][]string) ([]model.Entity, error) {
	if len(records) == 0 {
		return []model.Entity{}, nil
	}

	columns, err := columnIndexes(records[0])
	if err != nil {
		return nil, err
	}

	g := newGrouper()
	for i, record := range records[1:] {
		rowNum := i + 2
		if blank(record) {
			continue
		}

		row := decodeRow(record, columns)
		if err := validate.Struct(row); err != nil {
			return nil, &RowError{Row: rowNum, Err: fmt.Errorf("validation failed: %w", err)}
		}

		if err := g.add(row); err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
	}

	entities := g.entities()
	if err := model.ValidateEntities(entities); err != nil {
		return nil, err
	}

	return entities, nil
}

// rowFields maps header names to PreferenceRow field indexes
var rowFields = func() map[string]int {
	fields := make(map[string]int)
	t := reflect.TypeOf(PreferenceRow{})
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("header"); name != "" {
			fields[name] = i
		}
	}
	return fields
}()

// columnIndexes maps PreferenceRow field indexes to record columns
func columnIndexes(header []string) (map[int]int, error) {
	columns := make(map[int]int)
	for col, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if field, ok := rowFields[name]; ok {
			columns[field] = col
		}
	}

	for _, required := range []string{"student_id", "day"} {
		if _, ok := columns[rowFields[required]]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	return columns, nil
}

func decodeRow(record []string, columns map[int]int) PreferenceRow {
	var row PreferenceRow
	v := reflect.ValueOf(&row).Elem()
	for field, col := range columns {
		if col < len(record) {
			v.Field(field).SetString(strings.TrimSpace(record[col]))
		}
	}

	row.Priority = strings.ToLower(row.Priority)
	row.Day = strings.ToLower(row.Day)
	return row
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// grouper collects rows into entities in first-seen order
type grouper struct {
	order    []string
	byID     map[string]*model.Entity
	explicit map[string]bool
}

func newGrouper() *grouper {
	return &grouper{
		byID:     make(map[string]*model.Entity),
		explicit: make(map[string]bool),
	}
}

func (g *grouper) add(row PreferenceRow) error {
	entity, ok := g.byID[row.StudentID]
	if !ok {
		entity = &model.Entity{ID: row.StudentID, Priority: model.PriorityMedium}
		g.byID[row.StudentID] = entity
		g.order = append(g.order, row.StudentID)
	}

	if row.Priority != "" {
		priority, err := model.ParsePriority(row.Priority)
		if err != nil {
			return err
		}
		if g.explicit[row.StudentID] && priority != entity.Priority {
			return fmt.Errorf("student %s has priority %s but was %s on an earlier row", row.StudentID, priority, entity.Priority)
		}
		entity.Priority = priority
		g.explicit[row.StudentID] = true
	}

	day, err := model.ParseDay(row.Day)
	if err != nil {
		return err
	}
	if _, dup := entity.PreferencesFor(day); dup {
		return fmt.Errorf("student %s has more than one row for %s", row.StudentID, day)
	}

	prefs := model.DayPreferences{Day: day}
	for _, choice := range []string{row.First, row.Second, row.Third} {
		if choice != "" {
			prefs.Choices = append(prefs.Choices, choice)
		}
	}
	entity.Days = append(entity.Days, prefs)

	return nil
}

func (g *grouper) entities() []model.Entity {
	entities := make([]model.Entity, 0, len(g.order))
	for _, id := range g.order {
		entities = append(entities, *g.byID[id])
	}
	return entities
}
