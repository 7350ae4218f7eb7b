package sheetsclient

import (
	"fmt"
)

// AssignmentRow is one line of a published assignment tab
type AssignmentRow struct {
	Student    string
	Priority   string
	Day        string
	Activity   string // Empty when unassigned
	Preference string // "1st", "2nd", "3rd" or "none"
}

var assignmentHeader = []interface{}{"Student", "Priority", "Day", "Activity", "Preference"}

// PublishAssignments writes the rows to a new tab titled tabTitle.
// Publishing never overwrites an existing tab.
func (c *Client) PublishAssignments(spreadsheetID, tabTitle string, rows []AssignmentRow) error {
	exists, err := c.SheetExists(spreadsheetID, tabTitle)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tab %q already exists", tabTitle)
	}

	if _, err := c.CreateSheet(spreadsheetID, tabTitle); err != nil {
		return fmt.Errorf("failed to create tab: %w", err)
	}

	if err := c.UpdateValues(spreadsheetID, fmt.Sprintf("'%s'!A1", tabTitle), assignmentTable(rows)); err != nil {
		return fmt.Errorf("failed to write assignments to new tab: %w", err)
	}

	return nil
}

// assignmentTable builds the header plus one sheet row per assignment
func assignmentTable(rows []AssignmentRow) [][]interface{} {
	table := make([][]interface{}, 0, len(rows)+1)
	table = append(table, assignmentHeader)
	for _, row := range rows {
		table = append(table, []interface{}{row.Student, row.Priority, row.Day, row.Activity, row.Preference})
	}
	return table
}
