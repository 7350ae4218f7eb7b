package db

import "context"

// ResultStore records finished assignment runs.
// Nothing stored here is read back into an assignment run.
type ResultStore interface {
	InsertRun(ctx context.Context, run *Run) error
	InsertAssignments(ctx context.Context, records []AssignmentRecord) error
	GetRuns(ctx context.Context) ([]Run, error)
}
