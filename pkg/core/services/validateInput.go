package services

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/activity-assignment/internal/config"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
)

// InputSummary describes a validated preference input
type InputSummary struct {
	Source     string
	Entities   int
	EntityDays int
	ByPriority map[model.Priority]int
	ByDay      map[model.Day]int

	// UnknownActivities are preferred activities absent from the configured catalog
	UnknownActivities []string
}

// ValidateInput loads and validates preferences without running the engine
func ValidateInput(ctx context.Context, source PreferenceSource, cfg *config.Config, logger *zap.Logger) (*InputSummary, error) {
	logger.Debug("Validating input", zap.String("source", source.Name()))

	entities, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if err := model.ValidateEntities(entities); err != nil {
		return nil, err
	}

	summary := &InputSummary{
		Source:     source.Name(),
		Entities:   len(entities),
		ByPriority: make(map[model.Priority]int),
		ByDay:      make(map[model.Day]int),
	}

	unknown := make(map[string]bool)
	for _, entity := range entities {
		summary.ByPriority[entity.Priority]++
		for _, prefs := range entity.Days {
			summary.EntityDays++
			summary.ByDay[prefs.Day]++
			for _, choice := range prefs.Choices {
				if len(cfg.Activities) > 0 && !slices.Contains(cfg.Activities, choice) && !unknown[choice] {
					unknown[choice] = true
					summary.UnknownActivities = append(summary.UnknownActivities, choice)
				}
			}
		}
	}

	logger.Info("Input is valid",
		zap.Int("entities", summary.Entities),
		zap.Int("entity_days", summary.EntityDays),
		zap.Strings("unknown_activities", summary.UnknownActivities))

	return summary, nil
}
