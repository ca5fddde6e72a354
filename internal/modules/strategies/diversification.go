package strategies

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/scoring/scorers"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/rs/zerolog"
)

// diversificationFullPriorityGap is the deviation at which a bucket goal reaches priority 1.0.
const diversificationFullPriorityGap = 0.25

// DiversificationStrategy balances the portfolio across country and industry buckets.
type DiversificationStrategy struct {
	baseStrategy
}

// NewDiversificationStrategy creates a new diversification strategy
func NewDiversificationStrategy(deps Deps, log zerolog.Logger) *DiversificationStrategy {
	return &DiversificationStrategy{
		baseStrategy: newBaseStrategy(
			domain.StrategyDiversification,
			"Moves country and industry allocations toward their targets",
			deps, log,
		),
	}
}

// AnalyzeGoals creates one goal per bucket whose deviation is at least the threshold.
func (s *DiversificationStrategy) AnalyzeGoals(
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	stocks []universe.Security,
	minGapThreshold float64,
) []domain.StrategicGoal {
	var goals []domain.StrategicGoal
	goals = append(goals, s.bucketGoals(domain.GoalCategoryCountry, pc.CountryWeights, pc.CountryAllocations, pc, minGapThreshold)...)
	goals = append(goals, s.bucketGoals(domain.GoalCategoryIndustry, pc.IndustryWeights, pc.IndustryAllocations, pc, minGapThreshold)...)

	SortGoals(goals)
	s.log.Debug().Int("goals", len(goals)).Msg("Diversification goals analyzed")
	return goals
}

func (s *DiversificationStrategy) bucketGoals(
	category string,
	targets, currents map[string]float64,
	pc *domain.PortfolioContext,
	minGapThreshold float64,
) []domain.StrategicGoal {
	if len(targets) == 0 {
		return nil
	}

	var goals []domain.StrategicGoal
	for _, name := range sortedKeys(targets, currents) {
		status := allocation.CalculateAllocationStatus(category, name, targets[name], currents[name], currents[name]*pc.TotalValue)
		gap := math.Abs(status.Deviation)
		if gap < minGapThreshold || gap == 0 {
			continue
		}

		action := domain.GoalActionIncrease
		verb := "Underweight"
		if status.Deviation > 0 {
			action = domain.GoalActionDecrease
			verb = "Overweight"
		}

		goal, ok := s.newGoal(domain.GoalParams{
			Category:          category,
			Name:              name,
			Action:            action,
			CurrentValue:      status.CurrentPct,
			TargetValue:       status.TargetPct,
			PriorityScore:     math.Min(1.0, gap/diversificationFullPriorityGap),
			TargetValueChange: gap * pc.TotalValue,
			Description: fmt.Sprintf("%s %s %s (current %.1f%%, target %.1f%%)",
				verb, category, name, status.CurrentPct*100, status.TargetPct*100),
		})
		if ok {
			goals = append(goals, goal)
		}
	}
	return goals
}

// FindBestBuys picks the best scored buyable security for each underweight bucket.
func (s *DiversificationStrategy) FindBestBuys(
	goals []domain.StrategicGoal,
	pc *domain.PortfolioContext,
	availableStocks []universe.Security,
	availableCash float64,
) []domain.BuyCandidate {
	if !s.deps.Settings.AllowBuy || availableCash <= 0 {
		return nil
	}

	remaining := availableCash
	used := make(map[string]bool)
	var buys []domain.BuyCandidate

	for _, goal := range goalsWithAction(goals, domain.GoalActionIncrease) {
		if remaining <= 0 {
			break
		}

		for _, sec := range s.bucketCandidates(goal, pc, availableStocks) {
			if used[sec.Symbol] {
				continue
			}
			amount := math.Min(goal.TargetValueChange, remaining)
			score := pc.StockScores[sec.Symbol]
			buy, ok := s.sizeBuy(sec, amount, remaining, goal, goal.PriorityScore*score,
				fmt.Sprintf("Diversify into %s %s (score %.2f)", goal.Category, goal.Name, score))
			if !ok {
				continue
			}
			buys = append(buys, buy)
			used[sec.Symbol] = true
			remaining -= buy.Amount
			break
		}
	}

	return buys
}

// bucketCandidates returns buyable securities of the goal bucket meeting the score floor,
// best score first.
func (s *DiversificationStrategy) bucketCandidates(
	goal domain.StrategicGoal,
	pc *domain.PortfolioContext,
	stocks []universe.Security,
) []universe.Security {
	buckets := pc.StockCountries
	if goal.Category == domain.GoalCategoryIndustry {
		buckets = pc.StockIndustries
	}

	var candidates []universe.Security
	for _, sec := range stocks {
		if !s.buyable(sec) || buckets[sec.Symbol] != goal.Name {
			continue
		}
		if pc.StockScores[sec.Symbol] < s.deps.Settings.MinSecurityScore {
			continue
		}
		candidates = append(candidates, sec)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := pc.StockScores[candidates[i].Symbol], pc.StockScores[candidates[j].Symbol]
		if si != sj {
			return si > sj
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
	return candidates
}

// FindBestSells trims the most concentrated position of each overweight bucket.
func (s *DiversificationStrategy) FindBestSells(
	goals []domain.StrategicGoal,
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	availableCash float64,
) []domain.SellCandidate {
	if !s.deps.Settings.AllowSell {
		return nil
	}

	used := make(map[string]bool)
	var sells []domain.SellCandidate

	for _, goal := range goalsWithAction(goals, domain.GoalActionDecrease) {
		buckets := pc.StockCountries
		if goal.Category == domain.GoalCategoryIndustry {
			buckets = pc.StockIndustries
		}

		type ranked struct {
			pos     portfolio.Position
			sec     universe.Security
			balance float64
		}
		var candidates []ranked
		for _, pos := range positions {
			if used[pos.Symbol] || buckets[pos.Symbol] != goal.Name {
				continue
			}
			sec, ok := s.sellableSecurity(pc, pos)
			if !ok {
				continue
			}
			in := s.sellInput(pc, pos, sec)
			if eligible, _ := s.deps.SellScorer.CheckEligibility(in); !eligible {
				continue
			}
			balance := scorers.CalculatePortfolioBalanceScore(
				in.PositionValue, in.TotalPortfolioValue, in.Country, in.Industry,
				in.CountryAllocations, in.IndustryAllocations, in.CountryTargets, in.IndustryTargets,
			)
			candidates = append(candidates, ranked{pos: pos, sec: sec, balance: balance})
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].balance != candidates[j].balance {
				return candidates[i].balance > candidates[j].balance
			}
			return candidates[i].pos.Symbol < candidates[j].pos.Symbol
		})

		for _, c := range candidates {
			sell, ok := s.sizeSell(c.pos, c.sec.EffectiveMinLot(), goal.TargetValueChange, goal,
				goal.PriorityScore*c.balance,
				fmt.Sprintf("Reduce overweight %s %s (balance %.2f)", goal.Category, goal.Name, c.balance))
			if !ok {
				continue
			}
			sell.Name = c.sec.Name
			sells = append(sells, sell)
			used[c.pos.Symbol] = true
			break
		}
	}

	return sells
}
