package sheetsclient

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechorley/activity-assignment/internal/config"
)

// ListPreferenceRecords reads the configured preference tab as string records.
// The first record is the header row.
func (c *Client) ListPreferenceRecords(cfg *config.Config) ([][]string, error) {
	if cfg.PreferenceSheetID == "" {
		return nil, fmt.Errorf("no preference sheet configured")
	}

	values, err := c.GetValues(cfg.PreferenceSheetID, cfg.PreferenceTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	return toRecords(values), nil
}

// toRecords converts raw cell values into trimmed strings
func toRecords(raw [][]interface{}) [][]string {
	records := make([][]string, 0, len(raw))
	for _, row := range raw {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		records = append(records, record)
	}
	return records
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Sheets returns numeric IDs as floats
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
