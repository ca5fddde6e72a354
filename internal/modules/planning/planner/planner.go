// Package planner merges the goals of all enabled strategies into one strategic plan.
package planner

import (
	"sort"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/rs/zerolog"
)

// GoalPlanner synthesizes strategic goals from the enabled strategies.
type GoalPlanner struct {
	registry *strategies.Registry
	config   *domain.PlannerConfiguration
	log      zerolog.Logger
}

// NewGoalPlanner creates a goal planner. A nil config uses the defaults.
func NewGoalPlanner(registry *strategies.Registry, config *domain.PlannerConfiguration, log zerolog.Logger) *GoalPlanner {
	if config == nil {
		config = domain.NewDefaultConfiguration()
	}
	return &GoalPlanner{
		registry: registry,
		config:   config,
		log:      log.With().Str("component", "goal_planner").Logger(),
	}
}

// candidate is a strategy goal with its cross-strategy priority.
type candidate struct {
	goal       domain.StrategicGoal
	normalized float64
}

// CreatePlan asks every enabled strategy for goals, normalizes their priorities per strategy,
// merges goals that target the same category and name, and ranks the result.
// Identical inputs produce identical plans.
func (p *GoalPlanner) CreatePlan(
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	stocks []universe.Security,
) domain.StrategicPlan {
	merged := make(map[string]*candidate)
	sources := make(map[string][]string)

	for _, strategy := range p.registry.GetEnabled(p.config.GetEnabledStrategies()) {
		goals := strategy.AnalyzeGoals(pc, positions, stocks, p.config.MinGapThreshold)
		weight := p.config.GetStrategyWeight(strategy.Name())

		maxPriority := 0.0
		for _, g := range goals {
			if g.PriorityScore > maxPriority {
				maxPriority = g.PriorityScore
			}
		}

		for _, g := range goals {
			normalized := 0.0
			if maxPriority > 0 {
				normalized = g.PriorityScore / maxPriority * weight
			}

			key := g.Key()
			if !contains(sources[key], strategy.Name()) {
				sources[key] = append(sources[key], strategy.Name())
			}

			existing, ok := merged[key]
			if !ok || outranks(candidate{goal: g, normalized: normalized}, *existing) {
				merged[key] = &candidate{goal: g, normalized: normalized}
			}
		}

		p.log.Debug().
			Str("strategy", strategy.Name()).
			Int("goals", len(goals)).
			Float64("weight", weight).
			Msg("Collected strategy goals")
	}

	ranked := make([]candidate, 0, len(merged))
	for _, c := range merged {
		ranked = append(ranked, *c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.normalized != b.normalized {
			return a.normalized > b.normalized
		}
		if a.goal.GapSize != b.goal.GapSize {
			return a.goal.GapSize > b.goal.GapSize
		}
		if a.goal.Name != b.goal.Name {
			return a.goal.Name < b.goal.Name
		}
		return a.goal.Category < b.goal.Category
	})

	plan := domain.StrategicPlan{
		Steps:      make([]domain.PlanStep, len(ranked)),
		TotalValue: pc.TotalValue,
	}
	for i, c := range ranked {
		srcs := append([]string(nil), sources[c.goal.Key()]...)
		sort.Strings(srcs)
		plan.Steps[i] = domain.PlanStep{
			Rank:               i + 1,
			Goal:               c.goal,
			NormalizedPriority: c.normalized,
			Sources:            srcs,
		}
	}

	p.log.Info().Int("steps", len(plan.Steps)).Msg("Strategic plan created")
	return plan
}

// PopulateActions asks each strategy for the trades that serve the plan steps it won and
// attaches them to those steps. Each action carries its step's normalized priority so that
// actions are comparable across strategies.
func (p *GoalPlanner) PopulateActions(
	plan domain.StrategicPlan,
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	stocks []universe.Security,
	availableCash float64,
) domain.StrategicPlan {
	plan.AvailableCash = availableCash

	stepByKey := make(map[string]int, len(plan.Steps))
	for i := range plan.Steps {
		plan.Steps[i].Actions = nil
		stepByKey[plan.Steps[i].Goal.Key()] = i
	}

	for _, strategy := range p.registry.GetEnabled(p.config.GetEnabledStrategies()) {
		var goals []domain.StrategicGoal
		for _, step := range plan.Steps {
			if step.Goal.StrategyType == strategy.Name() {
				goals = append(goals, step.Goal)
			}
		}
		if len(goals) == 0 {
			continue
		}

		var actions []domain.ActionCandidate
		for _, sell := range strategy.FindBestSells(goals, pc, positions, availableCash) {
			actions = append(actions, sell.ToAction())
		}
		for _, buy := range strategy.FindBestBuys(goals, pc, stocks, availableCash) {
			actions = append(actions, buy.ToAction())
		}

		for _, action := range actions {
			idx, ok := stepByKey[action.GoalKey]
			if !ok {
				p.log.Warn().Str("goal", action.GoalKey).Str("symbol", action.Symbol).Msg("Action without plan step")
				continue
			}
			action.Priority = plan.Steps[idx].NormalizedPriority
			plan.Steps[idx].Actions = append(plan.Steps[idx].Actions, action)
		}
	}

	return plan
}

// Actions returns all plan actions in step order.
func Actions(plan domain.StrategicPlan) []domain.ActionCandidate {
	var actions []domain.ActionCandidate
	for _, step := range plan.Steps {
		actions = append(actions, step.Actions...)
	}
	return actions
}

// outranks reports whether a should replace b for the same goal key.
func outranks(a, b candidate) bool {
	if a.normalized != b.normalized {
		return a.normalized > b.normalized
	}
	if a.goal.GapSize != b.goal.GapSize {
		return a.goal.GapSize > b.goal.GapSize
	}
	return a.goal.StrategyType < b.goal.StrategyType
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
