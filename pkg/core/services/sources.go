package services

import (
	"context"
	"fmt"

	"github.com/jakechorley/activity-assignment/internal/config"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/loader"
)

// PreferenceSource supplies the entities to assign
type PreferenceSource interface {
	// Name identifies the source in logs and run history
	Name() string
	Load(ctx context.Context) ([]model.Entity, error)
}

// CSVSource reads preferences from a CSV file
type CSVSource struct {
	Path string
}

func (s CSVSource) Name() string {
	return s.Path
}

func (s CSVSource) Load(ctx context.Context) ([]model.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loader.LoadCSV(s.Path)
}

// PreferenceRecordsClient reads raw preference rows from a spreadsheet
type PreferenceRecordsClient interface {
	ListPreferenceRecords(cfg *config.Config) ([][]string, error)
}

// SheetSource reads preferences from the configured preference sheet tab
type SheetSource struct {
	Client PreferenceRecordsClient
	Cfg    *config.Config
}

func (s SheetSource) Name() string {
	return fmt.Sprintf("sheet:%s/%s", s.Cfg.PreferenceSheetID, s.Cfg.PreferenceTab)
}

func (s SheetSource) Load(ctx context.Context) ([]model.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.Client.ListPreferenceRecords(s.Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read preference sheet: %w", err)
	}
	return loader.FromRecords(records)
}

// ResolveSource picks the preference source for a command.
// An explicit CSV path wins, then the configured CSV, then the preference sheet.
func ResolveSource(csvPath string, cfg *config.Config, client PreferenceRecordsClient) (PreferenceSource, error) {
	switch {
	case csvPath != "":
		return CSVSource{Path: csvPath}, nil
	case cfg.InputCSV != "":
		return CSVSource{Path: cfg.InputCSV}, nil
	case cfg.PreferenceSheetID != "":
		if client == nil {
			return nil, fmt.Errorf("preference sheet %s configured but no sheets client available", cfg.PreferenceSheetID)
		}
		return SheetSource{Client: client, Cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("no input: pass a CSV path or set inputCSV or preferenceSheetID in config")
	}
}
