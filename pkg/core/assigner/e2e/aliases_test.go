package e2e

import (
	"github.com/jakechorley/activity-assignment/pkg/core/assigner"
	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/loader"
)

// Type aliases to avoid prefixing everything with assigner. and model.
type (
	Entity            = model.Entity
	Assignment        = model.Assignment
	ResourceInstance  = model.ResourceInstance
	AssignmentConfig  = assigner.AssignmentConfig
	AssignmentOutcome = assigner.AssignmentOutcome
	Strategy          = assigner.Strategy
)

// Function aliases
var (
	Assign           = assigner.Assign
	ParseCSV         = loader.ParseCSV
	NewCapacityTable = model.NewCapacityTable
)

const (
	High   = model.PriorityHigh
	Medium = model.PriorityMedium
	Low    = model.PriorityLow

	First  = model.RankFirst
	Second = model.RankSecond
	Third  = model.RankThird
	None   = model.RankNone

	Mon = model.Monday
	Tue = model.Tuesday
	Wed = model.Wednesday

	MinCost = assigner.StrategyMinCost
	Tiered  = assigner.StrategyTiered
)
