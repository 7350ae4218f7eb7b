package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/activity-assignment/internal/config"
	"github.com/jakechorley/activity-assignment/pkg/clients/sheetsclient"
	"github.com/jakechorley/activity-assignment/pkg/core/assigner"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/db"
)

// AssignmentPublisher writes assignment rows to a new spreadsheet tab
type AssignmentPublisher interface {
	PublishAssignments(spreadsheetID, tabTitle string, rows []sheetsclient.AssignmentRow) error
}

// AssignOptions are per-invocation overrides of the configuration
type AssignOptions struct {
	// Strategy overrides cfg.Strategy when set
	Strategy string

	// Parallel solves days concurrently. cfg.Parallel also enables it.
	Parallel bool

	// DryRun skips publishing and persisting
	DryRun bool

	// Publisher, when set, publishes the assignments to cfg.ResultsSheetID
	Publisher AssignmentPublisher

	// ResultsTab is the tab to publish to. Defaults to "Assignments <timestamp>".
	ResultsTab string

	// Env is recorded on the run
	Env string
}

// AssignResult is the outcome of one assignment run
type AssignResult struct {
	Run      *db.Run
	Entities []model.Entity
	Outcome  *assigner.AssignmentOutcome

	Published bool
	Persisted bool
}

// AssignActivities loads preferences, runs the assignment engine and records the result.
// Nothing is written when opts.DryRun is set. A nil store skips persisting.
func AssignActivities(
	ctx context.Context,
	source PreferenceSource,
	store db.ResultStore,
	cfg *config.Config,
	logger *zap.Logger,
	opts AssignOptions,
) (*AssignResult, error) {
	strategyName := cfg.Strategy
	if opts.Strategy != "" {
		strategyName = opts.Strategy
	}
	strategy, err := assigner.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loading preferences", zap.String("source", source.Name()))
	entities, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	logger.Debug("Preferences loaded", zap.Int("entities", len(entities)))

	capacity, err := cfg.CapacityTable()
	if err != nil {
		return nil, fmt.Errorf("failed to build capacity table: %w", err)
	}
	policy, err := cfg.CostPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to build cost policy: %w", err)
	}

	parallel := opts.Parallel || cfg.Parallel
	logger.Debug("Running assignment engine",
		zap.String("strategy", string(strategy)),
		zap.Bool("parallel", parallel),
		zap.Int("default_capacity", capacity.Default),
		zap.Int("capacity_overrides", len(capacity.Overrides)))

	outcome, err := assigner.Assign(ctx, assigner.AssignmentConfig{
		Entities: entities,
		Capacity: capacity,
		Policy:   policy,
		Catalog:  cfg.Activities,
		Strategy: strategy,
		Parallel: parallel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign activities: %w", err)
	}

	for _, day := range outcome.Days {
		logger.Debug("Day solved",
			zap.String("day", string(day.Day)),
			zap.Int("nodes", day.Nodes),
			zap.Int("edges", day.Edges),
			zap.Int("flow", day.Flow),
			zap.Int64("cost", day.Cost))
		if len(day.UnknownResources) > 0 {
			logger.Warn("Preferences name activities missing from the catalog",
				zap.String("day", string(day.Day)),
				zap.Strings("activities", day.UnknownResources))
		}
	}

	run := newRun(opts.Env, strategy, source.Name(), entities, outcome)
	result := &AssignResult{Run: run, Entities: entities, Outcome: outcome}

	logger.Info("Assignment complete",
		zap.String("run_id", run.ID),
		zap.Int("entity_days", run.EntityDays),
		zap.Int("assigned", run.Assigned),
		zap.Int("unassigned", run.Unassigned),
		zap.Duration("elapsed", outcome.Elapsed))

	if opts.DryRun {
		logger.Info("Dry run, skipping publish and persist")
		return result, nil
	}

	if opts.Publisher != nil {
		if cfg.ResultsSheetID == "" {
			return nil, fmt.Errorf("cannot publish: resultsSheetID is not configured")
		}
		tab := opts.ResultsTab
		if tab == "" {
			tab = "Assignments " + time.Now().Format("2006-01-02 15:04")
		}

		logger.Debug("Publishing assignments", zap.String("sheet_id", cfg.ResultsSheetID), zap.String("tab", tab))
		if err := opts.Publisher.PublishAssignments(cfg.ResultsSheetID, tab, BuildAssignmentRows(result)); err != nil {
			return nil, fmt.Errorf("failed to publish assignments: %w", err)
		}
		run.ResultsTab = tab
		result.Published = true
		logger.Info("Assignments published", zap.String("tab", tab))
	}

	if store == nil {
		logger.Debug("No result store configured, skipping persist")
		return result, nil
	}

	if err := store.InsertRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	if err := store.InsertAssignments(ctx, assignmentRecords(run.ID, outcome.Assignments)); err != nil {
		return nil, fmt.Errorf("failed to save assignments: %w", err)
	}
	result.Persisted = true
	logger.Info("Run saved", zap.String("run_id", run.ID))

	return result, nil
}

func newRun(env string, strategy assigner.Strategy, source string, entities []model.Entity, outcome *assigner.AssignmentOutcome) *db.Run {
	var totalCost int64
	for _, day := range outcome.Days {
		totalCost += day.Cost
	}

	assigned := outcome.Report.Assigned()
	return &db.Run{
		ID:         uuid.New().String(),
		Env:        env,
		Strategy:   string(strategy),
		Source:     source,
		Entities:   len(entities),
		EntityDays: len(outcome.Assignments),
		Assigned:   assigned,
		Unassigned: len(outcome.Assignments) - assigned,
		TotalCost:  totalCost,
		ElapsedMS:  outcome.Elapsed.Milliseconds(),
	}
}

func assignmentRecords(runID string, assignments []model.Assignment) []db.AssignmentRecord {
	records := make([]db.AssignmentRecord, 0, len(assignments))
	for _, a := range assignments {
		records = append(records, db.AssignmentRecord{
			ID:       uuid.New().String(),
			RunID:    runID,
			EntityID: a.EntityID,
			Priority: a.Priority.String(),
			Day:      string(a.Day),
			Resource: a.Resource,
			Rank:     a.Rank.String(),
		})
	}
	return records
}

// BuildAssignmentRows converts a result into sheet rows, ordered by day then input order
func BuildAssignmentRows(result *AssignResult) []sheetsclient.AssignmentRow {
	rows := make([]sheetsclient.AssignmentRow, 0, len(result.Outcome.Assignments))
	for _, a := range result.Outcome.Assignments {
		rows = append(rows, sheetsclient.AssignmentRow{
			Student:    a.EntityID,
			Priority:   a.Priority.String(),
			Day:        string(a.Day),
			Activity:   a.Resource,
			Preference: a.Rank.String(),
		})
	}
	return rows
}
