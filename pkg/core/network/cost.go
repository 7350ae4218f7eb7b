package network

import (
	"fmt"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
)

// Default cost weights. Each tier gap (10) is larger than the spread of rank
// costs (2), so a higher tier's worst choice is still cheaper than a lower
// tier's best one.
const (
	DefaultRankCostFirst  = 0
	DefaultRankCostSecond = 1
	DefaultRankCostThird  = 2

	DefaultBiasHigh   = 0
	DefaultBiasMedium = 10
	DefaultBiasLow    = 20
)

// CostPolicy maps (priority, rank) to the cost of an entity→resource edge.
// Lower cost is more desirable.
type CostPolicy struct {
	RankCosts    [model.MaxChoices]int64
	PriorityBias map[model.Priority]int64
}

// DefaultCostPolicy returns rank costs {0,1,2} and tier biases {0,10,20}
func DefaultCostPolicy() CostPolicy {
	return CostPolicy{
		RankCosts: [model.MaxChoices]int64{DefaultRankCostFirst, DefaultRankCostSecond, DefaultRankCostThird},
		PriorityBias: map[model.Priority]int64{
			model.PriorityHigh:   DefaultBiasHigh,
			model.PriorityMedium: DefaultBiasMedium,
			model.PriorityLow:    DefaultBiasLow,
		},
	}
}

// Cost returns base_rank_cost(rank) + priority_bias(priority)
func (p CostPolicy) Cost(priority model.Priority, rank model.Rank) int64 {
	return p.RankCosts[rank] + p.PriorityBias[priority]
}

// TieBreak returns the secondary cost of an edge. It weighs rank by tier
// (High heaviest), so among assignments of equal policy cost the one that
// gives higher tiers their better-ranked choices is cheaper.
func (p CostPolicy) TieBreak(priority model.Priority, rank model.Rank) int64 {
	return int64(rank) * int64(len(model.Priorities())-int(priority))
}

// maxTieBreak is the largest TieBreak value any single edge can have
func maxTieBreak() int64 {
	return int64(model.MaxChoices-1) * int64(len(model.Priorities()))
}

// Validate checks monotonicity and tier dominance:
//   - rank costs are non-negative and strictly increasing
//   - biases are non-negative and strictly increasing from High to Low
//   - every gap between adjacent tiers exceeds the full spread of rank costs
func (p CostPolicy) Validate() error {
	for i, c := range p.RankCosts {
		if c < 0 {
			return &model.ValidationError{Field: "rankCosts", Reason: fmt.Sprintf("%s rank cost %d is negative", model.Rank(i), c)}
		}
		if i > 0 && c <= p.RankCosts[i-1] {
			return &model.ValidationError{Field: "rankCosts", Reason: "rank costs must be strictly increasing"}
		}
	}

	spread := p.RankCosts[model.MaxChoices-1] - p.RankCosts[0]
	tiers := model.Priorities()
	for i, tier := range tiers {
		bias, ok := p.PriorityBias[tier]
		if !ok {
			return &model.ValidationError{Field: "priorityBias", Reason: fmt.Sprintf("no bias for %s priority", tier)}
		}
		if bias < 0 {
			return &model.ValidationError{Field: "priorityBias", Reason: fmt.Sprintf("%s bias %d is negative", tier, bias)}
		}
		if i == 0 {
			continue
		}
		gap := bias - p.PriorityBias[tiers[i-1]]
		if gap <= spread {
			return &model.ValidationError{
				Field: "priorityBias",
				Reason: fmt.Sprintf("gap between %s and %s bias (%d) must exceed rank cost spread (%d)",
					tiers[i-1], tier, gap, spread),
			}
		}
	}

	return nil
}
