package db

import "time"

// Run is one persisted engine invocation
type Run struct {
	ID        string
	CreatedAt time.Time
	Env       string
	Strategy  string
	Source    string // CSV path or "sheet:<id>/<tab>"

	Entities   int
	EntityDays int
	Assigned   int
	Unassigned int
	TotalCost  int64
	ElapsedMS  int64

	// ResultsTab is the published sheet tab, if any
	ResultsTab string
}

// AssignmentRecord is one entity-day outcome of a run
type AssignmentRecord struct {
	ID       string
	RunID    string
	EntityID string
	Priority string
	Day      string
	Resource string // Empty when unassigned
	Rank     string // "1st", "2nd", "3rd" or "none"
}
