package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/network"
)

// DefaultCapacity is the per-activity, per-day capacity used when none is configured
const DefaultCapacity = 15

// CapacityOverride sets the capacity of an activity on selected days.
// Days and RRule are combined; when both are empty the override applies every day.
type CapacityOverride struct {
	Activity string   `yaml:"activity" validate:"required"`
	Days     []string `yaml:"days,omitempty" validate:"dive,oneof=mon tue wed thu fri"`
	RRule    string   `yaml:"rrule,omitempty"`
	Capacity int      `yaml:"capacity" validate:"min=0"`
}

// PriorityBias overrides the cost bias of each tier
type PriorityBias struct {
	High   int64 `yaml:"high" validate:"min=0"`
	Medium int64 `yaml:"medium" validate:"min=0"`
	Low    int64 `yaml:"low" validate:"min=0"`
}

// Config represents the application configuration
type Config struct {
	InputCSV          string `yaml:"inputCSV,omitempty"`
	PreferenceSheetID string `yaml:"preferenceSheetID,omitempty"`
	PreferenceTab     string `yaml:"preferenceTab,omitempty" validate:"required_with=PreferenceSheetID"`
	ResultsSheetID    string `yaml:"resultsSheetID,omitempty"`
	DatabaseURL       string `yaml:"databaseURL,omitempty"`

	DefaultCapacity   *int               `yaml:"defaultCapacity,omitempty" validate:"omitempty,min=0"`
	CapacityOverrides []CapacityOverride `yaml:"capacityOverrides,omitempty" validate:"dive"`
	Activities        []string           `yaml:"activities,omitempty" validate:"dive,required"`

	Strategy     string        `yaml:"strategy,omitempty" validate:"omitempty,oneof=mincost tiered"`
	Parallel     bool          `yaml:"parallel,omitempty"`
	RankCosts    []int64       `yaml:"rankCosts,omitempty" validate:"omitempty,len=3"`
	PriorityBias *PriorityBias `yaml:"priorityBias,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from activity_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "activity_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	name := "activity_config.yaml"
	if env != "" {
		name = "activity_config." + env + ".yaml"
	}

	configPath, err := findFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, checks rrule syntax and
// checks that the resulting cost policy keeps tiers apart
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.CapacityOverrides {
		if override.RRule == "" {
			continue
		}
		if _, err := overrideDays(override); err != nil {
			return fmt.Errorf("invalid rrule in capacityOverrides[%d]: %w", i, err)
		}
	}

	if _, err := cfg.CostPolicy(); err != nil {
		return fmt.Errorf("invalid cost policy: %w", err)
	}

	return nil
}

// Capacity returns the configured default capacity
func (c *Config) Capacity() int {
	if c.DefaultCapacity == nil {
		return DefaultCapacity
	}
	return *c.DefaultCapacity
}

// CapacityTable builds the capacity table from the default and the overrides.
// Later overrides win over earlier ones for the same activity and day.
func (c *Config) CapacityTable() (model.CapacityTable, error) {
	table := model.NewCapacityTable(c.Capacity())

	for i, override := range c.CapacityOverrides {
		days, err := overrideDays(override)
		if err != nil {
			return model.CapacityTable{}, fmt.Errorf("capacityOverrides[%d]: %w", i, err)
		}
		for _, day := range days {
			table.Set(model.ResourceInstance{Name: override.Activity, Day: day}, override.Capacity)
		}
	}

	return table, nil
}

// CostPolicy returns the default policy with any configured weights applied
func (c *Config) CostPolicy() (network.CostPolicy, error) {
	policy := network.DefaultCostPolicy()

	if len(c.RankCosts) > 0 {
		if len(c.RankCosts) != model.MaxChoices {
			return network.CostPolicy{}, &model.ValidationError{Field: "rankCosts", Reason: fmt.Sprintf("want %d costs, got %d", model.MaxChoices, len(c.RankCosts))}
		}
		copy(policy.RankCosts[:], c.RankCosts)
	}

	if c.PriorityBias != nil {
		policy.PriorityBias = map[model.Priority]int64{
			model.PriorityHigh:   c.PriorityBias.High,
			model.PriorityMedium: c.PriorityBias.Medium,
			model.PriorityLow:    c.PriorityBias.Low,
		}
	}

	if err := policy.Validate(); err != nil {
		return network.CostPolicy{}, err
	}
	return policy, nil
}

// overrideDays resolves the days an override applies to, in week order
func overrideDays(override CapacityOverride) ([]model.Day, error) {
	selected := make(map[model.Day]bool)

	for _, d := range override.Days {
		day, err := model.ParseDay(d)
		if err != nil {
			return nil, err
		}
		selected[day] = true
	}

	if override.RRule != "" {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return nil, err
		}
		opts, err := rrule.StrToROption(override.RRule)
		if err != nil {
			return nil, err
		}
		if len(opts.Byweekday) == 0 {
			return nil, fmt.Errorf("rrule %q has no BYDAY", override.RRule)
		}
		for _, wd := range opts.Byweekday {
			day, ok := weekdays[wd.Day()]
			if !ok {
				return nil, fmt.Errorf("rrule %q selects a weekend day", override.RRule)
			}
			selected[day] = true
		}
	}

	if len(override.Days) == 0 && override.RRule == "" {
		return model.Days(), nil
	}

	var days []model.Day
	for _, day := range model.Days() {
		if selected[day] {
			days = append(days, day)
		}
	}
	return days, nil
}

// weekdays maps rrule weekday indexes (0 = MO) to days
var weekdays = map[int]model.Day{
	0: model.Monday,
	1: model.Tuesday,
	2: model.Wednesday,
	3: model.Thursday,
	4: model.Friday,
}

// findFile searches for name in the current directory and the home directory
func findFile(name string) (string, error) {
	// Check current directory
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
