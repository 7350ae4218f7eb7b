package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/activity-assignment/pkg/db"
)

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
}

// openTestDB connects to TEST_DATABASE_URL, skipping when it is unset
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	d, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestDB_RunsAndAssignments(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	// Migrations are idempotent
	require.NoError(t, d.RunMigrations(ctx))

	older := &db.Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().Add(-time.Hour),
		Env:       "test",
		Strategy:  "mincost",
		Source:    "older.csv",
	}
	require.NoError(t, d.InsertRun(ctx, older))

	run := &db.Run{
		ID:         uuid.NewString(),
		Env:        "test",
		Strategy:   "tiered",
		Source:     "week.csv",
		Entities:   2,
		EntityDays: 2,
		Assigned:   1,
		Unassigned: 1,
		TotalCost:  10,
		ElapsedMS:  3,
	}
	require.NoError(t, d.InsertRun(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	records := []db.AssignmentRecord{
		{ID: uuid.NewString(), RunID: run.ID, EntityID: "S1", Priority: "high", Day: "mon", Resource: "Chess", Rank: "1st"},
		{ID: uuid.NewString(), RunID: run.ID, EntityID: "S2", Priority: "low", Day: "mon", Rank: "none"},
	}
	require.NoError(t, d.InsertAssignments(ctx, records))
	require.NoError(t, d.InsertAssignments(ctx, nil))

	got, err := d.GetAssignments(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Chess", got[0].Resource)
	assert.Empty(t, got[1].Resource)

	runs, err := d.GetRuns(ctx)
	require.NoError(t, err)

	var newerIdx, olderIdx = -1, -1
	for i, r := range runs {
		switch r.ID {
		case run.ID:
			newerIdx = i
			assert.Equal(t, "tiered", r.Strategy)
			assert.Equal(t, 1, r.Unassigned)
			assert.Empty(t, r.ResultsTab)
		case older.ID:
			olderIdx = i
		}
	}
	require.NotEqual(t, -1, newerIdx)
	require.NotEqual(t, -1, olderIdx)
	assert.Less(t, newerIdx, olderIdx)
}
