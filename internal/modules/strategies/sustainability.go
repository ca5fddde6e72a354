package strategies

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/rs/zerolog"
)

const (
	// PortfolioQualityGoal names the value-weighted quality goal.
	PortfolioQualityGoal = "portfolio_quality"

	// maxQualityBuys caps how many securities share the portfolio quality budget.
	maxQualityBuys = 3
)

// SustainabilityStrategy raises the value-weighted quality of the portfolio.
type SustainabilityStrategy struct {
	baseStrategy
}

// NewSustainabilityStrategy creates a new sustainability strategy
func NewSustainabilityStrategy(deps Deps, log zerolog.Logger) *SustainabilityStrategy {
	return &SustainabilityStrategy{
		baseStrategy: newBaseStrategy(
			domain.StrategySustainability,
			"Keeps holdings above the quality floor",
			deps, log,
		),
	}
}

// AnalyzeGoals compares the value-weighted portfolio quality and each holding's quality with
// the minimum security score.
func (s *SustainabilityStrategy) AnalyzeGoals(
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	stocks []universe.Security,
	minGapThreshold float64,
) []domain.StrategicGoal {
	floor := s.deps.Settings.MinSecurityScore
	var goals []domain.StrategicGoal

	var weighted, covered float64
	for _, pos := range positions {
		score, ok := pc.Score(pos.Symbol)
		if !ok {
			continue
		}
		value := pc.Positions[pos.Symbol]
		weighted += value * score.QualityScore
		covered += value

		gap := floor - score.QualityScore
		if gap < minGapThreshold || gap <= 0 {
			continue
		}
		goal, ok := s.newGoal(domain.GoalParams{
			Category:          domain.GoalCategorySecurity,
			Name:              pos.Symbol,
			Action:            domain.GoalActionDecrease,
			CurrentValue:      score.QualityScore,
			TargetValue:       floor,
			PriorityScore:     math.Min(1.0, gap/math.Max(floor, minGapThreshold)),
			TargetValueChange: value * math.Min(1.0, gap/math.Max(floor, minGapThreshold)),
			Description: fmt.Sprintf("Quality of %s (%.2f) below floor %.2f",
				pos.Symbol, score.QualityScore, floor),
		})
		if ok {
			goals = append(goals, goal)
		}
	}

	if covered > 0 {
		quality := weighted / covered
		gap := floor - quality
		if gap >= minGapThreshold && gap > 0 {
			if goal, ok := s.newGoal(domain.GoalParams{
				Category:          domain.GoalCategoryQuality,
				Name:              PortfolioQualityGoal,
				Action:            domain.GoalActionIncrease,
				CurrentValue:      quality,
				TargetValue:       floor,
				PriorityScore:     math.Min(1.0, gap/math.Max(floor, minGapThreshold)),
				TargetValueChange: gap * pc.TotalValue,
				Description:       fmt.Sprintf("Portfolio quality %.2f below target %.2f", quality, floor),
			}); ok {
				goals = append(goals, goal)
			}
		}
	}

	SortGoals(goals)
	s.log.Debug().Int("goals", len(goals)).Msg("Sustainability goals analyzed")
	return goals
}

// FindBestBuys splits the portfolio quality budget across the highest quality securities.
func (s *SustainabilityStrategy) FindBestBuys(
	goals []domain.StrategicGoal,
	pc *domain.PortfolioContext,
	availableStocks []universe.Security,
	availableCash float64,
) []domain.BuyCandidate {
	if !s.deps.Settings.AllowBuy || availableCash <= 0 {
		return nil
	}

	var goal *domain.StrategicGoal
	for i := range goals {
		if goals[i].Category == domain.GoalCategoryQuality && goals[i].Action == domain.GoalActionIncrease {
			goal = &goals[i]
			break
		}
	}
	if goal == nil {
		return nil
	}

	floor := s.deps.Settings.MinSecurityScore
	var candidates []universe.Security
	for _, sec := range availableStocks {
		score, ok := pc.Score(sec.Symbol)
		if !ok || !s.buyable(sec) || score.QualityScore < floor {
			continue
		}
		candidates = append(candidates, sec)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		qi := pc.SecurityScores[candidates[i].Symbol].QualityScore
		qj := pc.SecurityScores[candidates[j].Symbol].QualityScore
		if qi != qj {
			return qi > qj
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
	if len(candidates) > maxQualityBuys {
		candidates = candidates[:maxQualityBuys]
	}
	if len(candidates) == 0 {
		return nil
	}

	remaining := availableCash
	perCandidate := math.Min(goal.TargetValueChange, availableCash) / float64(len(candidates))
	var buys []domain.BuyCandidate
	for _, sec := range candidates {
		quality := pc.SecurityScores[sec.Symbol].QualityScore
		buy, ok := s.sizeBuy(sec, perCandidate, remaining, *goal, goal.PriorityScore*quality,
			fmt.Sprintf("Raise portfolio quality with %s (quality %.2f)", sec.Symbol, quality))
		if !ok {
			continue
		}
		buys = append(buys, buy)
		remaining -= buy.Amount
	}
	return buys
}

// FindBestSells sells low quality holdings, strongest sell score first.
func (s *SustainabilityStrategy) FindBestSells(
	goals []domain.StrategicGoal,
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	availableCash float64,
) []domain.SellCandidate {
	if !s.deps.Settings.AllowSell {
		return nil
	}

	bySymbol := make(map[string]portfolio.Position, len(positions))
	for _, pos := range positions {
		bySymbol[pos.Symbol] = pos
	}

	type scoredSell struct {
		sell  domain.SellCandidate
		total float64
	}
	var scored []scoredSell
	for _, goal := range goalsWithAction(goals, domain.GoalActionDecrease) {
		if goal.Category != domain.GoalCategorySecurity {
			continue
		}
		pos, ok := bySymbol[goal.Name]
		if !ok {
			continue
		}
		sec, ok := s.sellableSecurity(pc, pos)
		if !ok {
			continue
		}
		in := s.sellInput(pc, pos, sec)
		if eligible, reason := s.deps.SellScorer.CheckEligibility(in); !eligible {
			s.log.Debug().Str("symbol", pos.Symbol).Str("reason", reason).Msg("Low quality position blocked from selling")
			continue
		}
		sellScore := s.deps.SellScorer.CalculateSellScore(in)

		sell, ok := s.sizeSell(pos, sec.EffectiveMinLot(), goal.TargetValueChange, goal,
			goal.PriorityScore*sellScore.TotalScore,
			fmt.Sprintf("Exit low quality %s (quality %.2f, sell score %.2f)", pos.Symbol, goal.CurrentValue, sellScore.TotalScore))
		if !ok {
			continue
		}
		sell.Name = sec.Name
		scored = append(scored, scoredSell{sell: sell, total: sellScore.TotalScore})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].total != scored[j].total {
			return scored[i].total > scored[j].total
		}
		return scored[i].sell.Symbol < scored[j].sell.Symbol
	})

	sells := make([]domain.SellCandidate, len(scored))
	for i, sc := range scored {
		sells[i] = sc.sell
	}
	return sells
}
