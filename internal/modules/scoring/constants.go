// Package scoring holds the thresholds and weights shared by the scoring functions.
package scoring

// =============================================================================
// Return Targets
// =============================================================================

const (
	// 11% total return is the planning target midpoint
	DefaultTargetAnnualReturn = 0.11

	// Target annual return range (ideal performance)
	TargetReturnMin = 0.08 // 8%
	TargetReturnMax = 0.15 // 15%

	// Annualized returns below this are a strong sell signal
	SignificantLossReturn = -0.05

	// Holding period after which returns are annualized (3 months)
	MinYearsForAnnualizing = 0.25
)

// =============================================================================
// Sell Score Constants
// =============================================================================

const (
	// Hard blocks (NEVER sell if any apply)
	DefaultMinHoldDays      = 90    // 3 months minimum hold
	DefaultSellCooldownDays = 180   // 6 months between sells
	DefaultMaxLossThreshold = -0.20 // Never sell if down more than 20%
	DefaultMinSellValueEUR  = 100.0 // Minimum sell value in EUR

	// Sell quantity limits
	MinSellPct = 0.10 // Minimum 10% of position
	MaxSellPct = 0.50 // Maximum 50% of position

	// Sell score component weights (must sum to 1.0)
	SellWeightUnderperformance = 0.35 // Primary factor
	SellWeightTimeHeld         = 0.18
	SellWeightPortfolioBalance = 0.18
	SellWeightInstability      = 0.14
	SellWeightDrawdown         = 0.15

	// Drawdown component is not modelled yet and contributes a neutral value
	NeutralDrawdownScore = 0.5
)

// =============================================================================
// Time Held Buckets (days)
// =============================================================================

const (
	UnknownHoldDays = 365 // Assumed when the purchase date is missing

	HoldDaysShort  = 180
	HoldDaysMedium = 365
	HoldDaysLong   = 730
)

// =============================================================================
// Portfolio Balance Constants
// =============================================================================

const (
	// Fallback targets for buckets without a configured weight
	DefaultCountryTarget  = 0.33
	DefaultIndustryTarget = 0.10

	// Position concentration bands
	ConcentrationHigh = 0.10 // >10% of portfolio = 1.0
	ConcentrationMed  = 0.07 // 7-10% = 0.7-1.0

	// Bucket excess bands
	ExcessSignificant = 0.03 // >3% over target = 0.5-0.7
	ExcessSaturation  = 0.10 // 0.7 reached at 10% over target
)

// =============================================================================
// Instability Detection Thresholds
// =============================================================================

const (
	InstabilityMinDays = 30 // Rate of gain is neutral below this

	InstabilityRateVeryHot = 0.50 // >50% annualized = 1.0
	InstabilityRateHot     = 0.30 // >30% = 0.7
	InstabilityRateWarm    = 0.20 // >20% = 0.4

	VolatilitySpikeHigh = 2.0 // Vol doubled = 1.0
	VolatilitySpikeMed  = 1.5 // Vol up 50% = 0.7
	VolatilitySpikeLow  = 1.2 // Vol up 20% = 0.4

	ValuationStretchHigh = 0.30 // >30% above MA = 1.0
	ValuationStretchMed  = 0.20 // >20% = 0.7
	ValuationStretchLow  = 0.10 // >10% = 0.4

	InstabilityWeightRate      = 0.40
	InstabilityWeightVolSpike  = 0.30
	InstabilityWeightValuation = 0.30

	// Profit floors applied after weighting
	ProfitFloorExtreme = 1.00 // >100% gain -> score >= 0.2
	ProfitFloorHigh    = 0.75 // >75% gain -> score >= 0.1
)

// =============================================================================
// Technical Indicator Parameters
// =============================================================================

const (
	TradingDaysPerYear = 252
	MALength           = 200
)
