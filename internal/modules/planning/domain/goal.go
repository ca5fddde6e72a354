package domain

import (
	"errors"
	"fmt"
	"math"
)

// Goal actions.
const (
	GoalActionIncrease = "increase"
	GoalActionDecrease = "decrease"
)

// Goal categories.
const (
	GoalCategoryCountry  = "country"
	GoalCategoryIndustry = "industry"
	GoalCategoryQuality  = "quality"
	GoalCategorySecurity = "security"
)

// ErrInvalidGoalAction is returned for actions other than increase/decrease.
var ErrInvalidGoalAction = errors.New("invalid goal action")

// StrategicGoal is a quantified gap a strategy wants closed. Values are never mutated after
// creation.
type StrategicGoal struct {
	StrategyType      string  `json:"strategy_type"`
	Category          string  `json:"category"`
	Name              string  `json:"name"`
	Action            string  `json:"action"`
	CurrentValue      float64 `json:"current_value"`
	TargetValue       float64 `json:"target_value"`
	GapSize           float64 `json:"gap_size"`
	PriorityScore     float64 `json:"priority_score"`
	TargetValueChange float64 `json:"target_value_change"` // EUR needed to close the gap
	Description       string  `json:"description"`
}

// GoalParams are the caller-supplied fields of a StrategicGoal.
type GoalParams struct {
	StrategyType      string
	Category          string
	Name              string
	Action            string
	CurrentValue      float64
	TargetValue       float64
	PriorityScore     float64
	TargetValueChange float64
	Description       string
}

// NewStrategicGoal validates the params and computes GapSize = |current - target|.
func NewStrategicGoal(p GoalParams) (StrategicGoal, error) {
	if p.Action != GoalActionIncrease && p.Action != GoalActionDecrease {
		return StrategicGoal{}, fmt.Errorf("%w: %q", ErrInvalidGoalAction, p.Action)
	}
	if p.Category == "" || p.Name == "" {
		return StrategicGoal{}, fmt.Errorf("goal requires category and name")
	}

	return StrategicGoal{
		StrategyType:      p.StrategyType,
		Category:          p.Category,
		Name:              p.Name,
		Action:            p.Action,
		CurrentValue:      p.CurrentValue,
		TargetValue:       p.TargetValue,
		GapSize:           math.Abs(p.CurrentValue - p.TargetValue),
		PriorityScore:     p.PriorityScore,
		TargetValueChange: math.Abs(p.TargetValueChange),
		Description:       p.Description,
	}, nil
}

// Key identifies the goal target across strategies.
func (g StrategicGoal) Key() string {
	return g.Category + ":" + g.Name
}
