// Package scorers provides the sell-side scoring functions and the combined sell scorer.
package scorers

import (
	"math"
	"time"

	"github.com/aristath/rebalancer/internal/modules/scoring"
	"github.com/aristath/rebalancer/pkg/formulas"
)

// SellScore is the full breakdown of a position's sell priority.
type SellScore struct {
	Symbol                string  `json:"symbol"`
	Eligible              bool    `json:"eligible"`
	BlockReason           string  `json:"block_reason,omitempty"`
	UnderperformanceScore float64 `json:"underperformance_score"`
	TimeHeldScore         float64 `json:"time_held_score"`
	PortfolioBalanceScore float64 `json:"portfolio_balance_score"`
	InstabilityScore      float64 `json:"instability_score"`
	TotalScore            float64 `json:"total_score"`
	SuggestedSellPct      float64 `json:"suggested_sell_pct"`
	SuggestedSellQuantity int     `json:"suggested_sell_quantity"`
	SuggestedSellValue    float64 `json:"suggested_sell_value"`
	ProfitPct             float64 `json:"profit_pct"`
	DaysHeld              int     `json:"days_held"`
}

// SellScoreInput carries everything needed to score one position.
type SellScoreInput struct {
	Symbol            string
	Quantity          float64
	AvgPrice          float64
	CurrentPrice      float64
	MinLot            int
	AllowSell         bool
	FirstBoughtAt     *time.Time
	LastTransactionAt *time.Time

	Country             string
	Industry            string
	PositionValue       float64 // EUR; falls back to Quantity*CurrentPrice when zero
	TotalPortfolioValue float64
	CountryAllocations  map[string]float64
	IndustryAllocations map[string]float64
	CountryTargets      map[string]float64
	IndustryTargets     map[string]float64

	CurrentVolatility    float64
	HistoricalVolatility float64
	DistanceFromMA200    float64
}

// SellScorerConfig holds the hard-block settings.
type SellScorerConfig struct {
	MinHoldDays      int
	SellCooldownDays int
	MaxLossThreshold float64
	MinSellValueEUR  float64
}

// DefaultSellScorerConfig returns the standard hard-block settings.
func DefaultSellScorerConfig() SellScorerConfig {
	return SellScorerConfig{
		MinHoldDays:      scoring.DefaultMinHoldDays,
		SellCooldownDays: scoring.DefaultSellCooldownDays,
		MaxLossThreshold: scoring.DefaultMaxLossThreshold,
		MinSellValueEUR:  scoring.DefaultMinSellValueEUR,
	}
}

// SellScorer calculates sell priority scores for positions
type SellScorer struct {
	cfg SellScorerConfig
	now func() time.Time
}

// NewSellScorer creates a new sell scorer
func NewSellScorer(cfg SellScorerConfig) *SellScorer {
	return &SellScorer{cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (ss *SellScorer) WithClock(now func() time.Time) *SellScorer {
	ss.now = now
	return ss
}

// Config returns the scorer settings.
func (ss *SellScorer) Config() SellScorerConfig {
	return ss.cfg
}

// CalculateSellScore calculates complete sell score for a position
func (ss *SellScorer) CalculateSellScore(in SellScoreInput) SellScore {
	now := ss.now()

	positionValue := in.PositionValue
	if positionValue == 0 {
		positionValue = in.Quantity * in.CurrentPrice
	}

	profitPct := 0.0
	if in.AvgPrice > 0 {
		profitPct = (in.CurrentPrice - in.AvgPrice) / in.AvgPrice
	}

	timeHeldScore, daysHeld := CalculateTimeHeldScore(in.FirstBoughtAt, ss.cfg.MinHoldDays, now)

	eligible, blockReason := ss.checkSellEligibility(in.AllowSell, profitPct, in.LastTransactionAt, now)
	if eligible && in.Quantity <= 0 {
		eligible, blockReason = false, "No quantity held"
	}
	if !eligible {
		return SellScore{
			Symbol:      in.Symbol,
			Eligible:    false,
			BlockReason: blockReason,
			ProfitPct:   round4(profitPct),
			DaysHeld:    daysHeld,
		}
	}

	underperformanceScore, _ := CalculateUnderperformanceScore(
		in.CurrentPrice, in.AvgPrice, daysHeld, ss.cfg.MaxLossThreshold,
	)
	portfolioBalanceScore := CalculatePortfolioBalanceScore(
		positionValue,
		in.TotalPortfolioValue,
		in.Country,
		in.Industry,
		in.CountryAllocations,
		in.IndustryAllocations,
		in.CountryTargets,
		in.IndustryTargets,
	)
	instabilityScore := CalculateInstabilityScore(
		profitPct,
		daysHeld,
		in.CurrentVolatility,
		in.HistoricalVolatility,
		in.DistanceFromMA200,
	)

	totalScore := underperformanceScore*scoring.SellWeightUnderperformance +
		timeHeldScore*scoring.SellWeightTimeHeld +
		portfolioBalanceScore*scoring.SellWeightPortfolioBalance +
		instabilityScore*scoring.SellWeightInstability +
		scoring.SellWeightDrawdown*scoring.NeutralDrawdownScore

	minLot := float64(in.MinLot)
	if minLot < 1 {
		minLot = 1
	}
	sellQuantity, sellPct := determineSellQuantity(
		totalScore,
		in.Quantity,
		minLot,
		in.CurrentPrice,
		ss.cfg.MinSellValueEUR,
	)

	score := SellScore{
		Symbol:                in.Symbol,
		Eligible:              sellQuantity > 0,
		UnderperformanceScore: round3(underperformanceScore),
		TimeHeldScore:         round3(timeHeldScore),
		PortfolioBalanceScore: round3(portfolioBalanceScore),
		InstabilityScore:      round3(instabilityScore),
		TotalScore:            round3(totalScore),
		SuggestedSellPct:      round3(sellPct),
		SuggestedSellQuantity: int(sellQuantity),
		SuggestedSellValue:    round3(sellQuantity * in.CurrentPrice),
		ProfitPct:             round4(profitPct),
		DaysHeld:              daysHeld,
	}
	if !score.Eligible {
		score.BlockReason = "Below minimum sell value"
	}
	return score
}

// CheckEligibility reports whether the hard blocks allow selling the position at all.
func (ss *SellScorer) CheckEligibility(in SellScoreInput) (bool, string) {
	profitPct := 0.0
	if in.AvgPrice > 0 {
		profitPct = (in.CurrentPrice - in.AvgPrice) / in.AvgPrice
	}
	return ss.checkSellEligibility(in.AllowSell, profitPct, in.LastTransactionAt, ss.now())
}

// checkSellEligibility checks if selling is allowed based on hard blocks
func (ss *SellScorer) checkSellEligibility(
	allowSell bool,
	profitPct float64,
	lastTransactionAt *time.Time,
	now time.Time,
) (bool, string) {
	if !allowSell {
		return false, "allow_sell=false"
	}

	if profitPct < ss.cfg.MaxLossThreshold {
		return false, "Loss exceeds threshold"
	}

	if lastTransactionAt != nil {
		daysSince := daysBetween(*lastTransactionAt, now)
		if daysSince < ss.cfg.MinHoldDays {
			return false, "Held less than minimum days"
		}
		if daysSince < ss.cfg.SellCooldownDays {
			return false, "Sell cooldown period active"
		}
	}

	return true, ""
}

// CalculateUnderperformanceScore scores annualized return against the 8-15% target band.
// Higher score = more reason to sell. Returns (score, simple profit fraction).
// A loss beyond maxLossThreshold scores 0 whatever the holding period; without one the
// simple return is used.
func CalculateUnderperformanceScore(
	currentPrice, avgPrice float64,
	daysHeld int,
	maxLossThreshold float64,
) (float64, float64) {
	if avgPrice <= 0 {
		return 0.5, 0
	}

	profitPct := (currentPrice - avgPrice) / avgPrice

	annualizedReturn := profitPct
	if cagr, ok := formulas.CAGR(avgPrice, currentPrice, daysHeld); ok {
		annualizedReturn = cagr
	}

	switch {
	case profitPct < maxLossThreshold:
		return 0.0, profitPct // BLOCKED - loss too big
	case annualizedReturn < scoring.SignificantLossReturn:
		return 0.9, profitPct
	case annualizedReturn < 0:
		return 0.7, profitPct // stagnant, free up capital
	case annualizedReturn < scoring.TargetReturnMin:
		return 0.5, profitPct
	case annualizedReturn <= scoring.TargetReturnMax:
		return 0.1, profitPct // ideal range, don't sell
	default:
		return 0.3, profitPct // consider taking profits
	}
}

// CalculateTimeHeldScore scores the holding period. Longer unrewarded holds score higher.
// Returns (score, days held).
func CalculateTimeHeldScore(firstBoughtAt *time.Time, minHoldDays int, now time.Time) (float64, int) {
	if firstBoughtAt == nil {
		return 0.6, scoring.UnknownHoldDays
	}

	daysHeld := daysBetween(*firstBoughtAt, now)

	switch {
	case daysHeld < minHoldDays:
		return 0.0, daysHeld // BLOCKED
	case daysHeld < scoring.HoldDaysShort:
		return 0.3, daysHeld
	case daysHeld < scoring.HoldDaysMedium:
		return 0.6, daysHeld
	case daysHeld < scoring.HoldDaysLong:
		return 0.8, daysHeld
	default:
		return 1.0, daysHeld
	}
}

// CalculatePortfolioBalanceScore scores position concentration and bucket overweight.
// Overweight positions score higher.
func CalculatePortfolioBalanceScore(
	positionValue float64,
	totalPortfolioValue float64,
	country string,
	industry string,
	countryAllocations map[string]float64,
	industryAllocations map[string]float64,
	countryTargets map[string]float64,
	industryTargets map[string]float64,
) float64 {
	if totalPortfolioValue <= 0 {
		return 0.5
	}

	positionPct := positionValue / totalPortfolioValue
	if positionPct > scoring.ConcentrationHigh {
		return 1.0
	}
	if positionPct > scoring.ConcentrationMed {
		band := scoring.ConcentrationHigh - scoring.ConcentrationMed
		return 0.7 + (positionPct-scoring.ConcentrationMed)/band*0.3
	}

	excess := math.Max(
		bucketExcess(country, countryAllocations, countryTargets, scoring.DefaultCountryTarget),
		bucketExcess(industry, industryAllocations, industryTargets, scoring.DefaultIndustryTarget),
	)

	switch {
	case excess > scoring.ExcessSignificant:
		band := scoring.ExcessSaturation - scoring.ExcessSignificant
		return 0.5 + math.Min(1.0, (excess-scoring.ExcessSignificant)/band)*0.2
	case excess > 0:
		return 0.3 + excess/scoring.ExcessSignificant*0.2
	default:
		return 0.1 // underweight or balanced
	}
}

func bucketExcess(name string, allocations, targets map[string]float64, fallback float64) float64 {
	if name == "" {
		return 0
	}
	target, ok := targets[name]
	if !ok {
		target = fallback
	}
	return allocations[name] - target
}

// CalculateInstabilityScore detects potential instability/bubble conditions
// High score = signs of unsustainable gains
func CalculateInstabilityScore(
	profitPct float64,
	daysHeld int,
	currentVolatility float64,
	historicalVolatility float64,
	distanceFromMA200 float64,
) float64 {
	rateScore := calculateRateOfGainScore(profitPct, daysHeld)
	volScore := calculateVolatilitySpikeScore(currentVolatility, historicalVolatility)
	valuationScore := calculateValuationStretchScore(distanceFromMA200)

	score := rateScore*scoring.InstabilityWeightRate +
		volScore*scoring.InstabilityWeightVolSpike +
		valuationScore*scoring.InstabilityWeightValuation

	if profitPct > scoring.ProfitFloorExtreme {
		score = math.Max(score, 0.2)
	} else if profitPct > scoring.ProfitFloorHigh {
		score = math.Max(score, 0.1)
	}

	return score
}

func calculateRateOfGainScore(profitPct float64, daysHeld int) float64 {
	if daysHeld < scoring.InstabilityMinDays {
		return 0.5 // Too early
	}

	annualized := formulas.AnnualizeReturn(profitPct, daysHeld)

	if annualized > scoring.InstabilityRateVeryHot {
		return 1.0
	} else if annualized > scoring.InstabilityRateHot {
		return 0.7
	} else if annualized > scoring.InstabilityRateWarm {
		return 0.4
	}
	return 0.1 // Sustainable
}

func calculateVolatilitySpikeScore(currentVolatility, historicalVolatility float64) float64 {
	if historicalVolatility <= 0 {
		return 0.3 // No historical data
	}

	volRatio := currentVolatility / historicalVolatility

	if volRatio > scoring.VolatilitySpikeHigh {
		return 1.0
	} else if volRatio > scoring.VolatilitySpikeMed {
		return 0.7
	} else if volRatio > scoring.VolatilitySpikeLow {
		return 0.4
	}
	return 0.1
}

func calculateValuationStretchScore(distanceFromMA200 float64) float64 {
	if distanceFromMA200 > scoring.ValuationStretchHigh {
		return 1.0
	} else if distanceFromMA200 > scoring.ValuationStretchMed {
		return 0.7
	} else if distanceFromMA200 > scoring.ValuationStretchLow {
		return 0.4
	}
	return 0.1 // Near or below MA
}

// determineSellQuantity determines how much to sell based on score
func determineSellQuantity(
	sellScore float64,
	quantity float64,
	minLot float64,
	currentPrice float64,
	minSellValue float64,
) (float64, float64) {
	if quantity <= 0 {
		return 0, 0
	}

	// 10% to 50% of the position
	sellPct := math.Max(scoring.MinSellPct, math.Min(scoring.MaxSellPct, scoring.MinSellPct+(sellScore*0.40)))

	sellQuantity := roundToLots(quantity*sellPct, minLot)

	// Keep at least 1 lot
	maxSell := quantity - minLot
	if sellQuantity >= maxSell {
		sellQuantity = roundToLots(maxSell, minLot)
	}

	if sellQuantity < minLot {
		return 0, 0
	}

	if sellQuantity*currentPrice < minSellValue {
		return 0, 0
	}

	return sellQuantity, sellQuantity / quantity
}

// roundToLots rounds quantity down to whole lots
func roundToLots(quantity, lotSize float64) float64 {
	if lotSize <= 0 {
		return math.Floor(quantity)
	}
	return math.Floor(quantity/lotSize) * lotSize
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
