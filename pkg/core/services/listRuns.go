package services

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/activity-assignment/pkg/db"
)

// RunLister reads persisted runs
type RunLister interface {
	GetRuns(ctx context.Context) ([]db.Run, error)
}

// ListRuns returns the run history, newest first
func ListRuns(ctx context.Context, store RunLister, logger *zap.Logger) ([]db.Run, error) {
	if store == nil {
		return nil, fmt.Errorf("no result store configured: set databaseURL in config")
	}

	logger.Debug("Fetching runs")
	runs, err := store.GetRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	slices.SortStableFunc(runs, func(a, b db.Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	logger.Debug("Found runs", zap.Int("count", len(runs)))
	return runs, nil
}
