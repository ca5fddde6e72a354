package domain

import (
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/universe"
)

// MinTotalValue is the floor applied to TotalValue so percentage math never divides by zero.
const MinTotalValue = 1.0

// PortfolioContext is the read-only snapshot one planning cycle works on.
//
// CURRENCY INVARIANT: All monetary values are in EUR.
// StockCountries and StockIndustries map a symbol to its allocation bucket, i.e. the
// group name used as key in CountryWeights and IndustryWeights.
type PortfolioContext struct {
	CountryWeights  map[string]float64 `json:"country_weights"`  // Target fractions by country group
	IndustryWeights map[string]float64 `json:"industry_weights"` // Target fractions by industry group
	Positions       map[string]float64 `json:"positions"`        // Symbol -> market value
	TotalValue      float64            `json:"total_value"`

	StockCountries  map[string]string  `json:"stock_countries"`
	StockIndustries map[string]string  `json:"stock_industries"`
	StockScores     map[string]float64 `json:"stock_scores"` // Symbol -> total score

	CountryAllocations  map[string]float64                `json:"country_allocations"`  // Current fractions by country group
	IndustryAllocations map[string]float64                `json:"industry_allocations"` // Current fractions by industry group
	SecurityScores      map[string]universe.SecurityScore `json:"-"`
	Securities          map[string]universe.Security      `json:"-"` // Symbol -> tradable attributes
}

// PortfolioContextInput holds the raw inputs of NewPortfolioContext.
type PortfolioContextInput struct {
	CountryWeights  map[string]float64
	IndustryWeights map[string]float64
	Positions       map[string]float64
	TotalValue      float64
	StockCountries  map[string]string
	StockIndustries map[string]string
	StockScores     map[string]float64
	SecurityScores  map[string]universe.SecurityScore
	Securities      []universe.Security
}

// NewPortfolioContext builds a context from copies of every input map, clamps TotalValue to
// MinTotalValue and derives current allocations from positions.
func NewPortfolioContext(in PortfolioContextInput) *PortfolioContext {
	total := in.TotalValue
	if total <= 0 {
		total = MinTotalValue
	}

	pc := &PortfolioContext{
		CountryWeights:  copyFloats(in.CountryWeights),
		IndustryWeights: copyFloats(in.IndustryWeights),
		Positions:       copyFloats(in.Positions),
		TotalValue:      total,
		StockCountries:  copyStrings(in.StockCountries),
		StockIndustries: copyStrings(in.StockIndustries),
		StockScores:     copyFloats(in.StockScores),
		SecurityScores:  make(map[string]universe.SecurityScore, len(in.SecurityScores)),
		Securities:      make(map[string]universe.Security, len(in.Securities)),
	}
	for k, v := range in.SecurityScores {
		pc.SecurityScores[k] = v
	}
	for _, sec := range in.Securities {
		pc.Securities[sec.Symbol] = sec
	}

	pc.CountryAllocations, _ = allocation.CalculateCurrentAllocations(pc.Positions, pc.StockCountries, total)
	pc.IndustryAllocations, _ = allocation.CalculateCurrentAllocations(pc.Positions, pc.StockIndustries, total)

	return pc
}

// PositionPct returns a position's share of the portfolio.
func (pc *PortfolioContext) PositionPct(symbol string) float64 {
	return pc.Positions[symbol] / pc.TotalValue
}

// Security returns the tradable attributes of a symbol, if known.
func (pc *PortfolioContext) Security(symbol string) (universe.Security, bool) {
	s, ok := pc.Securities[symbol]
	return s, ok
}

// Score returns the detailed score of a symbol, if any.
func (pc *PortfolioContext) Score(symbol string) (universe.SecurityScore, bool) {
	s, ok := pc.SecurityScores[symbol]
	return s, ok
}

func copyFloats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
