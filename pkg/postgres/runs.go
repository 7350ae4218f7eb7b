package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/activity-assignment/pkg/db"
)

// InsertRun inserts a run record. A zero CreatedAt is set by the database.
func (d *DB) InsertRun(ctx context.Context, run *db.Run) error {
	var resultsTab *string
	if run.ResultsTab != "" {
		resultsTab = &run.ResultsTab
	}

	err := d.pool.QueryRow(ctx, `
		INSERT INTO run (id, created_at, env, strategy, source, entities, entity_days, assigned, unassigned, total_cost, elapsed_ms, results_tab)
		VALUES ($1, COALESCE($2, NOW()), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, run.ID, nullTime(run), run.Env, run.Strategy, run.Source, run.Entities, run.EntityDays,
		run.Assigned, run.Unassigned, run.TotalCost, run.ElapsedMS, resultsTab,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRuns retrieves all runs, newest first
func (d *DB) GetRuns(ctx context.Context) ([]db.Run, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, env, strategy, source, entities, entity_days, assigned, unassigned, total_cost, elapsed_ms, results_tab
		FROM run
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		var r db.Run
		var resultsTab *string
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Env, &r.Strategy, &r.Source, &r.Entities, &r.EntityDays,
			&r.Assigned, &r.Unassigned, &r.TotalCost, &r.ElapsedMS, &resultsTab); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if resultsTab != nil {
			r.ResultsTab = *resultsTab
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// InsertAssignments inserts assignment records in a single transaction
func (d *DB) InsertAssignments(ctx context.Context, records []db.AssignmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		var resource *string
		if r.Resource != "" {
			resource = &r.Resource
		}
		batch.Queue(`
			INSERT INTO assignment (id, run_id, entity_id, priority, day, resource, rank)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.ID, r.RunID, r.EntityID, r.Priority, r.Day, resource, r.Rank)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert assignments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAssignments retrieves the assignment records of one run in insertion key order
func (d *DB) GetAssignments(ctx context.Context, runID string) ([]db.AssignmentRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, entity_id, priority, day, resource, rank
		FROM assignment
		WHERE run_id = $1
		ORDER BY entity_id, day
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var records []db.AssignmentRecord
	for rows.Next() {
		var r db.AssignmentRecord
		var resource *string
		if err := rows.Scan(&r.ID, &r.RunID, &r.EntityID, &r.Priority, &r.Day, &resource, &r.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if resource != nil {
			r.Resource = *resource
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return records, nil
}

func nullTime(run *db.Run) any {
	if run.CreatedAt.IsZero() {
		return nil
	}
	return run.CreatedAt.UTC()
}
