// Package domain provides planning domain models.
package domain

import "github.com/aristath/rebalancer/internal/modules/scoring"

// Strategy names.
const (
	StrategyDiversification = "diversification"
	StrategySustainability  = "sustainability"
	StrategyOpportunity     = "opportunity"
)

// Filter names.
const (
	FilterCorrelationAware = "correlation_aware"
	FilterDedupe           = "dedupe"
)

// PlannerConfiguration represents the complete configuration for a planner instance.
// Loaded from TOML; fields missing from the file keep the values of NewDefaultConfiguration.
type PlannerConfiguration struct {
	Name        string `json:"name" toml:"name"`
	Description string `json:"description" toml:"description"`

	// Return and score targets. TargetAnnualReturn is reported with the configuration only;
	// sell scoring keeps its fixed 8-15% band.
	TargetAnnualReturn float64 `json:"target_annual_return" toml:"target_annual_return"`
	MinSecurityScore   float64 `json:"min_security_score" toml:"min_security_score"` // Floor for buy eligibility

	// Portfolio optimizer settings, consumed by the external optimizer
	OptimizerBlend        float64 `json:"optimizer_blend" toml:"optimizer_blend"` // 0.0 = pure Mean-Variance, 1.0 = pure HRP
	OptimizerTargetReturn float64 `json:"optimizer_target_return" toml:"optimizer_target_return"`

	MinCashReserve float64 `json:"min_cash_reserve" toml:"min_cash_reserve"` // EUR never deployed by buys

	// Goal analysis and output bounds
	MinGapThreshold    float64 `json:"min_gap_threshold" toml:"min_gap_threshold"`
	MaxRecommendations int     `json:"max_recommendations" toml:"max_recommendations"`
	MaxSequenceDepth   int     `json:"max_sequence_depth" toml:"max_sequence_depth"`

	// Trade permissions
	AllowSell bool `json:"allow_sell" toml:"allow_sell"`
	AllowBuy  bool `json:"allow_buy" toml:"allow_buy"`

	// Risk management settings
	MinHoldDays      int     `json:"min_hold_days" toml:"min_hold_days"`
	SellCooldownDays int     `json:"sell_cooldown_days" toml:"sell_cooldown_days"`
	MaxLossThreshold float64 `json:"max_loss_threshold" toml:"max_loss_threshold"`
	MinSellValueEUR  float64 `json:"min_sell_value_eur" toml:"min_sell_value_eur"`

	// Strategies
	EnableDiversificationStrategy bool               `json:"enable_diversification_strategy" toml:"enable_diversification_strategy"`
	EnableSustainabilityStrategy  bool               `json:"enable_sustainability_strategy" toml:"enable_sustainability_strategy"`
	EnableOpportunityStrategy     bool               `json:"enable_opportunity_strategy" toml:"enable_opportunity_strategy"`
	StrategyWeights               map[string]float64 `json:"strategy_weights" toml:"strategy_weights"`

	// Filters
	EnableCorrelationAwareFilter bool    `json:"enable_correlation_aware_filter" toml:"enable_correlation_aware_filter"`
	EnableDedupeFilter           bool    `json:"enable_dedupe_filter" toml:"enable_dedupe_filter"`
	CorrelationThreshold         float64 `json:"correlation_threshold" toml:"correlation_threshold"`
	CorrelationLookbackDays      int     `json:"correlation_lookback_days" toml:"correlation_lookback_days"`
	CorrelationTimeoutSeconds    int     `json:"correlation_timeout_seconds" toml:"correlation_timeout_seconds"`
}

// NewDefaultConfiguration creates a PlannerConfiguration with default settings.
func NewDefaultConfiguration() *PlannerConfiguration {
	return &PlannerConfiguration{
		Name:                          "default",
		TargetAnnualReturn:            scoring.DefaultTargetAnnualReturn,
		MinSecurityScore:              0.5,
		OptimizerBlend:                0.5,   // 50% MV, 50% HRP
		OptimizerTargetReturn:         0.11,  // 11% target annual return
		MinCashReserve:                500.0, // €500 minimum cash
		MinGapThreshold:               0.05,
		MaxRecommendations:            10,
		MaxSequenceDepth:              5,
		AllowSell:                     true,
		AllowBuy:                      true,
		MinHoldDays:                   scoring.DefaultMinHoldDays,
		SellCooldownDays:              scoring.DefaultSellCooldownDays,
		MaxLossThreshold:              scoring.DefaultMaxLossThreshold,
		MinSellValueEUR:               scoring.DefaultMinSellValueEUR,
		EnableDiversificationStrategy: true,
		EnableSustainabilityStrategy:  true,
		EnableOpportunityStrategy:     true,
		StrategyWeights:               map[string]float64{},
		EnableCorrelationAwareFilter:  true,
		EnableDedupeFilter:            true,
		CorrelationThreshold:          0.7,
		CorrelationLookbackDays:       252,
		CorrelationTimeoutSeconds:     10,
	}
}

// GetEnabledStrategies returns enabled strategy names in a fixed order.
func (c *PlannerConfiguration) GetEnabledStrategies() []string {
	enabled := []string{}
	if c.EnableDiversificationStrategy {
		enabled = append(enabled, StrategyDiversification)
	}
	if c.EnableSustainabilityStrategy {
		enabled = append(enabled, StrategySustainability)
	}
	if c.EnableOpportunityStrategy {
		enabled = append(enabled, StrategyOpportunity)
	}
	return enabled
}

// GetEnabledFilters returns enabled filter names in application order.
func (c *PlannerConfiguration) GetEnabledFilters() []string {
	enabled := []string{}
	if c.EnableDedupeFilter {
		enabled = append(enabled, FilterDedupe)
	}
	if c.EnableCorrelationAwareFilter {
		enabled = append(enabled, FilterCorrelationAware)
	}
	return enabled
}

// GetStrategyWeight returns the cross-strategy weight. Unconfigured strategies weigh 1.0.
func (c *PlannerConfiguration) GetStrategyWeight(name string) float64 {
	if w, ok := c.StrategyWeights[name]; ok {
		return w
	}
	return 1.0
}

// GetFilterParams returns the parameters for a filter.
func (c *PlannerConfiguration) GetFilterParams(name string) map[string]interface{} {
	switch name {
	case FilterCorrelationAware:
		return map[string]interface{}{
			"correlation_threshold": c.CorrelationThreshold,
			"lookback_days":         c.CorrelationLookbackDays,
			"timeout_seconds":       c.CorrelationTimeoutSeconds,
		}
	default:
		return map[string]interface{}{}
	}
}
