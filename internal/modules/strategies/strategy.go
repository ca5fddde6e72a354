// Package strategies implements the analytical lenses that turn a portfolio context into
// strategic goals and candidate trades.
package strategies

import (
	"sort"
	"time"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/scoring/scorers"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/rs/zerolog"
)

// DefaultMinGapThreshold is the smallest gap a strategy turns into a goal.
const DefaultMinGapThreshold = 0.05

// Strategy is the contract every analytical lens implements.
type Strategy interface {
	Name() string
	Description() string

	// AnalyzeGoals returns goals ordered by priority desc, gap desc, name asc.
	// Gaps smaller than minGapThreshold are ignored.
	AnalyzeGoals(
		pc *domain.PortfolioContext,
		positions []portfolio.Position,
		stocks []universe.Security,
		minGapThreshold float64,
	) []domain.StrategicGoal

	FindBestBuys(
		goals []domain.StrategicGoal,
		pc *domain.PortfolioContext,
		availableStocks []universe.Security,
		availableCash float64,
	) []domain.BuyCandidate

	FindBestSells(
		goals []domain.StrategicGoal,
		pc *domain.PortfolioContext,
		positions []portfolio.Position,
		availableCash float64,
	) []domain.SellCandidate
}

// Sizer converts monetary targets into lot-aligned quantities.
type Sizer interface {
	CalculateBuyQuantity(targetValueEUR, price float64, minLot int, exchangeRate float64) (domain.SizedTrade, error)
	CalculateSellQuantity(targetValueEUR, price float64, minLot int, exchangeRate float64) (domain.SizedTrade, error)
	CapToHolding(trade domain.SizedTrade, held, price float64, minLot int, exchangeRate float64) domain.SizedTrade
}

// Settings are the planner options strategies read.
type Settings struct {
	MinSecurityScore float64
	AllowBuy         bool
	AllowSell        bool
}

// SettingsFromConfig extracts strategy settings from a planner configuration.
func SettingsFromConfig(cfg *domain.PlannerConfiguration) Settings {
	return Settings{
		MinSecurityScore: cfg.MinSecurityScore,
		AllowBuy:         cfg.AllowBuy,
		AllowSell:        cfg.AllowSell,
	}
}

// Deps are the collaborators shared by all strategies.
type Deps struct {
	Sizer      Sizer
	SellScorer *scorers.SellScorer
	Settings   Settings
	Clock      func() time.Time
}

// DepsFromConfig wires a sell scorer and settings from the planner configuration.
// A nil clock uses time.Now.
func DepsFromConfig(cfg *domain.PlannerConfiguration, sizer Sizer, clock func() time.Time) Deps {
	if clock == nil {
		clock = time.Now
	}
	scorer := scorers.NewSellScorer(scorers.SellScorerConfig{
		MinHoldDays:      cfg.MinHoldDays,
		SellCooldownDays: cfg.SellCooldownDays,
		MaxLossThreshold: cfg.MaxLossThreshold,
		MinSellValueEUR:  cfg.MinSellValueEUR,
	}).WithClock(clock)

	return Deps{
		Sizer:      sizer,
		SellScorer: scorer,
		Settings:   SettingsFromConfig(cfg),
		Clock:      clock,
	}
}

// baseStrategy provides identity, logging and sizing helpers.
type baseStrategy struct {
	name        string
	description string
	deps        Deps
	log         zerolog.Logger
}

func newBaseStrategy(name, description string, deps Deps, log zerolog.Logger) baseStrategy {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return baseStrategy{
		name:        name,
		description: description,
		deps:        deps,
		log:         log.With().Str("strategy", name).Logger(),
	}
}

// Name returns the strategy name.
func (b *baseStrategy) Name() string {
	return b.name
}

// Description returns the strategy description.
func (b *baseStrategy) Description() string {
	return b.description
}

// newGoal creates a goal for this strategy; invalid goals are logged and dropped.
func (b *baseStrategy) newGoal(p domain.GoalParams) (domain.StrategicGoal, bool) {
	p.StrategyType = b.name
	goal, err := domain.NewStrategicGoal(p)
	if err != nil {
		b.log.Warn().Err(err).Str("name", p.Name).Msg("Dropping invalid goal")
		return domain.StrategicGoal{}, false
	}
	return goal, true
}

// sizeBuy sizes a buy of up to amount EUR. ok is false when the security cannot be bought or
// the lot-aligned trade would exceed maxSpend.
func (b *baseStrategy) sizeBuy(
	sec universe.Security,
	amount, maxSpend float64,
	goal domain.StrategicGoal,
	priority float64,
	reason string,
) (domain.BuyCandidate, bool) {
	if amount <= 0 || sec.Price <= 0 {
		return domain.BuyCandidate{}, false
	}

	trade, err := b.deps.Sizer.CalculateBuyQuantity(amount, sec.Price, sec.EffectiveMinLot(), rateOf(sec.CurrencyRate))
	if err != nil {
		b.log.Debug().Err(err).Str("symbol", sec.Symbol).Msg("Cannot size buy")
		return domain.BuyCandidate{}, false
	}
	if trade.Quantity == 0 || trade.ValueEUR > maxSpend {
		return domain.BuyCandidate{}, false
	}

	return domain.BuyCandidate{
		Symbol:       sec.Symbol,
		Name:         sec.Name,
		Amount:       trade.ValueEUR,
		Quantity:     trade.Quantity,
		Price:        sec.Price,
		Currency:     sec.Currency,
		Reason:       reason,
		Priority:     priority,
		StrategyType: b.name,
		GoalKey:      goal.Key(),
	}, true
}

// sizeSell sizes a sell of about targetEUR, capped at the held quantity.
func (b *baseStrategy) sizeSell(
	pos portfolio.Position,
	minLot int,
	targetEUR float64,
	goal domain.StrategicGoal,
	priority float64,
	reason string,
) (domain.SellCandidate, bool) {
	if targetEUR <= 0 || pos.CurrentPrice <= 0 {
		return domain.SellCandidate{}, false
	}

	rate := rateOf(pos.CurrencyRate)
	trade, err := b.deps.Sizer.CalculateSellQuantity(targetEUR, pos.CurrentPrice, minLot, rate)
	if err != nil {
		b.log.Debug().Err(err).Str("symbol", pos.Symbol).Msg("Cannot size sell")
		return domain.SellCandidate{}, false
	}
	trade = b.deps.Sizer.CapToHolding(trade, pos.Quantity, pos.CurrentPrice, minLot, rate)
	if trade.Quantity == 0 {
		return domain.SellCandidate{}, false
	}

	return b.sellCandidate(pos, trade.Quantity, trade.ValueEUR, goal, priority, reason), true
}

func (b *baseStrategy) sellCandidate(
	pos portfolio.Position,
	quantity int,
	valueEUR float64,
	goal domain.StrategicGoal,
	priority float64,
	reason string,
) domain.SellCandidate {
	return domain.SellCandidate{
		Symbol:         pos.Symbol,
		Quantity:       quantity,
		Price:          pos.CurrentPrice,
		EstimatedValue: valueEUR,
		Currency:       pos.Currency,
		Reason:         reason,
		Priority:       priority,
		StrategyType:   b.name,
		GoalKey:        goal.Key(),
	}
}

// sellInput builds the sell scorer input for a position.
func (b *baseStrategy) sellInput(pc *domain.PortfolioContext, pos portfolio.Position, sec universe.Security) scorers.SellScoreInput {
	score := pc.SecurityScores[pos.Symbol]
	return scorers.SellScoreInput{
		Symbol:               pos.Symbol,
		Quantity:             pos.Quantity,
		AvgPrice:             pos.AvgPrice,
		CurrentPrice:         pos.CurrentPrice,
		MinLot:               sec.EffectiveMinLot(),
		AllowSell:            sec.AllowSell,
		FirstBoughtAt:        pos.FirstBoughtAt,
		LastTransactionAt:    pos.LastTransactionAt,
		Country:              pc.StockCountries[pos.Symbol],
		Industry:             pc.StockIndustries[pos.Symbol],
		PositionValue:        pc.Positions[pos.Symbol],
		TotalPortfolioValue:  pc.TotalValue,
		CountryAllocations:   pc.CountryAllocations,
		IndustryAllocations:  pc.IndustryAllocations,
		CountryTargets:       pc.CountryWeights,
		IndustryTargets:      pc.IndustryWeights,
		CurrentVolatility:    score.Volatility,
		HistoricalVolatility: score.HistoricalVolatility,
		DistanceFromMA200:    score.DistanceFromMA200,
	}
}

// sellableSecurity returns the security of a held position when selling is allowed.
func (b *baseStrategy) sellableSecurity(pc *domain.PortfolioContext, pos portfolio.Position) (universe.Security, bool) {
	if !b.deps.Settings.AllowSell || pos.Quantity <= 0 {
		return universe.Security{}, false
	}
	sec, ok := pc.Security(pos.Symbol)
	if !ok {
		// Held but not in the active universe: sell with defaults
		sec = universe.Security{Symbol: pos.Symbol, MinLot: 1, AllowSell: true, Currency: pos.Currency}
	}
	if !sec.AllowSell {
		return universe.Security{}, false
	}
	return sec, true
}

// buyable reports whether a security may be bought.
func (b *baseStrategy) buyable(sec universe.Security) bool {
	return b.deps.Settings.AllowBuy && sec.Active && sec.AllowBuy && sec.Price > 0
}

// SortGoals orders goals by priority desc, gap desc, name asc, category asc.
func SortGoals(goals []domain.StrategicGoal) {
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.GapSize != b.GapSize {
			return a.GapSize > b.GapSize
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Category < b.Category
	})
}

func goalsWithAction(goals []domain.StrategicGoal, action string) []domain.StrategicGoal {
	var out []domain.StrategicGoal
	for _, g := range goals {
		if g.Action == action {
			out = append(out, g)
		}
	}
	return out
}

func rateOf(rate float64) float64 {
	if rate <= 0 {
		return 1.0
	}
	return rate
}

func sortedKeys(maps ...map[string]float64) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
