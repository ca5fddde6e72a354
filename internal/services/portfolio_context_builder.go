// Package services holds the cross-module services of the planning core: the portfolio
// context builder and trade sizing.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/aristath/rebalancer/pkg/formulas"
	"github.com/rs/zerolog"
)

// DefaultContextBuildTimeout bounds the whole context build.
const DefaultContextBuildTimeout = 30 * time.Second

// PlanningSnapshot is everything one planning cycle reads.
type PlanningSnapshot struct {
	Context          *domain.PortfolioContext
	Positions        []portfolio.Position
	Securities       []universe.Security
	AvailableCashEUR float64
}

// ContextBuilderDeps lists the collaborators of PortfolioContextBuilder.
// Cash, Groups and History are optional.
type ContextBuilderDeps struct {
	Positions  portfolio.PositionSource
	Cash       portfolio.CashSource
	Securities universe.SecuritySource
	Targets    allocation.TargetSource
	Groups     allocation.GroupSource
	Scores     universe.ScoreSource
	History    universe.PriceHistorySource
}

// PortfolioContextBuilder assembles a PortfolioContext from the data sources.
// Any source failure aborts the build; technical enrichment is best-effort.
type PortfolioContextBuilder struct {
	deps    ContextBuilderDeps
	timeout time.Duration
	log     zerolog.Logger
}

// NewPortfolioContextBuilder creates a new builder with all dependencies.
func NewPortfolioContextBuilder(deps ContextBuilderDeps, log zerolog.Logger) *PortfolioContextBuilder {
	return &PortfolioContextBuilder{
		deps:    deps,
		timeout: DefaultContextBuildTimeout,
		log:     log.With().Str("service", "portfolio_context_builder").Logger(),
	}
}

// WithTimeout sets the bound for the whole build.
func (b *PortfolioContextBuilder) WithTimeout(timeout time.Duration) *PortfolioContextBuilder {
	if timeout > 0 {
		b.timeout = timeout
	}
	return b
}

// Build reads all sources and returns a consistent snapshot.
func (b *PortfolioContextBuilder) Build(ctx context.Context) (*PlanningSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.log.Debug().Msg("Building portfolio context")

	positions, err := b.deps.Positions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	totalValue, err := b.deps.Positions.GetTotalValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load total value: %w", err)
	}

	securities, err := b.deps.Securities.GetAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load securities: %w", err)
	}

	countryTargets, err := b.deps.Targets.GetCountryGroupTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load country targets: %w", err)
	}

	industryTargets, err := b.deps.Targets.GetIndustryGroupTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load industry targets: %w", err)
	}

	countryResolver, industryResolver, err := b.loadResolvers(ctx)
	if err != nil {
		return nil, err
	}

	symbols := collectSymbols(positions, securities)
	scores, err := b.deps.Scores.GetScores(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	var cash float64
	if b.deps.Cash != nil {
		cash, err = b.deps.Cash.GetAvailableCashEUR(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load cash: %w", err)
		}
	}

	if b.deps.History != nil {
		b.enrichScores(ctx, scores)
	}

	if totalValue <= 0 {
		b.log.Debug().Float64("total_value", totalValue).Msg("Total value not positive, clamping")
	}

	pc := domain.NewPortfolioContext(domain.PortfolioContextInput{
		CountryWeights:  countryTargets,
		IndustryWeights: industryTargets,
		Positions:       positionValues(positions),
		TotalValue:      totalValue,
		StockCountries:  bucketsBy(securities, func(s universe.Security) string { return countryResolver.Resolve(s.Country) }),
		StockIndustries: bucketsBy(securities, func(s universe.Security) string { return industryResolver.Resolve(s.Industry) }),
		StockScores:     totalScores(scores),
		SecurityScores:  scores,
		Securities:      securities,
	})

	b.log.Info().
		Int("positions", len(positions)).
		Int("securities", len(securities)).
		Int("scores", len(scores)).
		Float64("total_value", pc.TotalValue).
		Float64("cash", cash).
		Msg("Portfolio context built")

	return &PlanningSnapshot{
		Context:          pc,
		Positions:        positions,
		Securities:       securities,
		AvailableCashEUR: cash,
	}, nil
}

func (b *PortfolioContextBuilder) loadResolvers(ctx context.Context) (*allocation.GroupResolver, *allocation.GroupResolver, error) {
	if b.deps.Groups == nil {
		return allocation.NewGroupResolver(nil), allocation.NewGroupResolver(nil), nil
	}

	countryGroups, err := b.deps.Groups.GetCountryGroups(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load country groups: %w", err)
	}

	industryGroups, err := b.deps.Groups.GetIndustryGroups(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load industry groups: %w", err)
	}

	return allocation.NewGroupResolver(countryGroups), allocation.NewGroupResolver(industryGroups), nil
}

// enrichScores fills missing historical volatility and MA200 distance from one batch price
// history fetch. Failures are logged and the scores are left as they are.
func (b *PortfolioContextBuilder) enrichScores(ctx context.Context, scores map[string]universe.SecurityScore) {
	var missing []string
	for symbol, score := range scores {
		if score.NeedsTechnicalEnrichment() {
			missing = append(missing, symbol)
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Strings(missing)

	history, err := b.deps.History.Fetch(ctx, missing, formulas.DefaultMAPeriod)
	if err != nil {
		b.log.Warn().Err(err).Int("symbols", len(missing)).Msg("Technical enrichment skipped")
		return
	}

	enriched := 0
	for _, symbol := range missing {
		closes := universe.Closes(history[symbol])
		if len(closes) < 2 {
			continue
		}

		score := scores[symbol]
		if score.HistoricalVolatility <= 0 {
			score.HistoricalVolatility = formulas.AnnualizedVolatility(formulas.CalculateReturns(closes))
		}
		if score.Volatility <= 0 {
			score.Volatility = formulas.RecentVolatility(closes, formulas.RecentVolatilityWindow)
		}
		if score.DistanceFromMA200 == 0 {
			if distance, ok := formulas.DistanceFromMA(closes, formulas.DefaultMAPeriod); ok {
				score.DistanceFromMA200 = distance
			}
		}
		scores[symbol] = score
		enriched++
	}

	b.log.Debug().Int("enriched", enriched).Int("requested", len(missing)).Msg("Technical enrichment done")
}

func collectSymbols(positions []portfolio.Position, securities []universe.Security) []string {
	seen := make(map[string]bool, len(positions)+len(securities))
	var symbols []string
	for _, p := range positions {
		if !seen[p.Symbol] {
			seen[p.Symbol] = true
			symbols = append(symbols, p.Symbol)
		}
	}
	for _, s := range securities {
		if !seen[s.Symbol] {
			seen[s.Symbol] = true
			symbols = append(symbols, s.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

func positionValues(positions []portfolio.Position) map[string]float64 {
	values := make(map[string]float64, len(positions))
	for _, p := range positions {
		value := p.MarketValueEUR
		if value == 0 {
			rate := p.CurrencyRate
			if rate <= 0 {
				rate = 1.0
			}
			value = p.Quantity * p.CurrentPrice * rate
		}
		values[p.Symbol] = value
	}
	return values
}

func bucketsBy(securities []universe.Security, key func(universe.Security) string) map[string]string {
	buckets := make(map[string]string, len(securities))
	for _, s := range securities {
		if bucket := key(s); bucket != "" {
			buckets[s.Symbol] = bucket
		}
	}
	return buckets
}

func totalScores(scores map[string]universe.SecurityScore) map[string]float64 {
	totals := make(map[string]float64, len(scores))
	for symbol, s := range scores {
		totals[symbol] = s.TotalScore
	}
	return totals
}
