package strategies

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/scoring"
	"github.com/aristath/rebalancer/internal/modules/scoring/scorers"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/rs/zerolog"
)

// neutralInstability is the instability level above which a holding is considered stretched.
const neutralInstability = 0.5

// OpportunityStrategy buys attractive securities below an equal-weight slot and takes profit on
// unstable winners.
type OpportunityStrategy struct {
	baseStrategy
}

// NewOpportunityStrategy creates a new opportunity strategy
func NewOpportunityStrategy(deps Deps, log zerolog.Logger) *OpportunityStrategy {
	return &OpportunityStrategy{
		baseStrategy: newBaseStrategy(
			domain.StrategyOpportunity,
			"Buys relative value and momentum, trims over-extended winners",
			deps, log,
		),
	}
}

// OpportunityScore is the mean of the technical and fundamental scores.
// ok is false when neither is known.
func OpportunityScore(score universe.SecurityScore) (float64, bool) {
	switch {
	case score.TechnicalScore > 0 && score.FundamentalScore > 0:
		return (score.TechnicalScore + score.FundamentalScore) / 2, true
	case score.TechnicalScore > 0:
		return score.TechnicalScore, true
	case score.FundamentalScore > 0:
		return score.FundamentalScore, true
	default:
		return 0, false
	}
}

// AnalyzeGoals creates decrease goals for holdings whose instability score is stretched and
// increase goals for attractive under-held securities. A symbol gets at most one goal; a
// take-profit goal wins.
func (s *OpportunityStrategy) AnalyzeGoals(
	pc *domain.PortfolioContext,
	positions []portfolio.Position,
	stocks []universe.Security,
	minGapThreshold float64,
) []domain.StrategicGoal {
	var goals []domain.StrategicGoal
	floor := s.deps.Settings.MinSecurityScore

	// Symbols taking profit get no increase goal
	takingProfit := make(map[string]bool)
	now := s.deps.Clock()
	for _, pos := range positions {
		score, ok := pc.Score(pos.Symbol)
		if !ok || pos.Quantity <= 0 {
			continue
		}
		daysHeld, known := pos.DaysHeld(now)
		if !known {
			daysHeld = scoring.UnknownHoldDays
		}
		instability := scorers.CalculateInstabilityScore(
			pos.ProfitPct(), daysHeld, score.Volatility, score.HistoricalVolatility, score.DistanceFromMA200,
		)
		gap := instability - neutralInstability
		if gap < minGapThreshold || gap <= 0 {
			continue
		}
		sellPct := math.Max(scoring.MinSellPct, math.Min(scoring.MaxSellPct, scoring.MinSellPct+instability*0.40))
		if goal, ok := s.newGoal(domain.GoalParams{
			Category:          domain.GoalCategorySecurity,
			Name:              pos.Symbol,
			Action:            domain.GoalActionDecrease,
			CurrentValue:      instability,
			TargetValue:       neutralInstability,
			PriorityScore:     math.Min(1.0, gap/neutralInstability),
			TargetValueChange: pc.Positions[pos.Symbol] * sellPct,
			Description:       fmt.Sprintf("Take profit on %s (instability %.2f)", pos.Symbol, instability),
		}); ok {
			goals = append(goals, goal)
			takingProfit[pos.Symbol] = true
		}
	}

	buyable := 0
	for _, sec := range stocks {
		if s.buyable(sec) {
			buyable++
		}
	}
	if buyable > 0 {
		slot := 1.0 / float64(buyable)
		for _, sec := range stocks {
			if !s.buyable(sec) || takingProfit[sec.Symbol] {
				continue
			}
			opp, ok := OpportunityScore(pc.SecurityScores[sec.Symbol])
			if !ok {
				continue
			}
			gap := opp - floor
			weight := pc.PositionPct(sec.Symbol)
			if gap < minGapThreshold || gap <= 0 || weight >= slot {
				continue
			}
			if goal, ok := s.newGoal(domain.GoalParams{
				Category:          domain.GoalCategorySecurity,
				Name:              sec.Symbol,
				Action:            domain.GoalActionIncrease,
				CurrentValue:      opp,
				TargetValue:       floor,
				PriorityScore:     math.Min(1.0, gap/math.Max(1-floor, minGapThreshold)),
				TargetValueChange: (slot - weight) * pc.TotalValue,
				Description: fmt.Sprintf("Opportunity in %s (score %.2f, weight %.1f%% of %.1f%% slot)",
					sec.Symbol, opp, weight*100, slot*100),
			}); ok {
				goals = append(goals, goal)
			}
		}
	}

	SortGoals(goals)
	s.log.Debug().Int("goals", len(goals)).Msg("Opportunity goals analyzed")
	return goals
}

// FindBestBuys buys the opportunity goals in opportunity order until cash runs out.
func (s *OpportunityStrategy) FindBestBuys(
	goals []domain.StrategicGoal,
	pc *domain.PortfolioContext,
	availableStocks []universe.Security,
	availableCash float64,
) []domain.BuyCandidate {
	if !s.deps.Settings.AllowBuy || availableCash <= 0 {
		return nil
	}

	bySymbol := make(map[string]universe.Security, len(availableStocks))
	for _, sec := range availableStocks {
		bySymbol[sec.Symbol] = sec
	}

	increases := goalsWithAction(goals, domain.GoalActionIncrease)
	sort.SliceStable(increases, func(i, j int) bool {
		if increases[i].CurrentValue != increases[j].CurrentValue {
			return increases[i].CurrentValue > increases[j].CurrentValue
		}
		return increases[i].Name < increases[j].Name
	})

	remaining := availableCash
	var buys []domain.BuyCandidate
	for _, goal := range increases {
		if remaining <= 0 {
			break
		}
		sec, ok := bySymbol[goal.Name]
		if !ok || !s.buyable(sec) {
			continue
		}
		amount := math.Min(goal.TargetValueChange, remaining)
		buy, ok := s.sizeBuy(sec, amount, remaining, goal, goal.PriorityScore,
			fmt.Sprintf("Opportunity buy %s (score %.2f)", sec.Symbol, goal.CurrentValue))
		if !ok {
			continue
		}
		buys = append(buys, buy)
		remaining -= buy.Amount
	}
	return buys
}

// FindBestSells sells the suggested share of unstable holdings, most unstable first.
func (s *OpportunityStrategy) FindBestSells(
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

	decreases := goalsWithAction(goals, domain.GoalActionDecrease)
	sort.SliceStable(decreases, func(i, j int) bool {
		if decreases[i].CurrentValue != decreases[j].CurrentValue {
			return decreases[i].CurrentValue > decreases[j].CurrentValue
		}
		return decreases[i].Name < decreases[j].Name
	})

	var sells []domain.SellCandidate
	for _, goal := range decreases {
		pos, ok := bySymbol[goal.Name]
		if !ok {
			continue
		}
		sec, ok := s.sellableSecurity(pc, pos)
		if !ok {
			continue
		}
		sellScore := s.deps.SellScorer.CalculateSellScore(s.sellInput(pc, pos, sec))
		if !sellScore.Eligible || sellScore.SuggestedSellQuantity == 0 {
			s.log.Debug().Str("symbol", pos.Symbol).Str("reason", sellScore.BlockReason).Msg("Take profit skipped")
			continue
		}

		valueEUR := float64(sellScore.SuggestedSellQuantity) * pos.CurrentPrice * rateOf(pos.CurrencyRate)
		sell := s.sellCandidate(pos, sellScore.SuggestedSellQuantity, math.Round(valueEUR*100)/100, goal,
			goal.CurrentValue,
			fmt.Sprintf("Take profit on %s (instability %.2f, sell %.0f%%)", pos.Symbol, goal.CurrentValue, sellScore.SuggestedSellPct*100))
		sell.Name = sec.Name
		sells = append(sells, sell)
	}
	return sells
}
