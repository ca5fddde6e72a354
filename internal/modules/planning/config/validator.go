// Package config provides planning configuration functionality.
package config

import (
	"fmt"
	"strings"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Validator validates planner configurations.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a planner configuration.
// Returns ValidationErrors if the configuration is invalid.
func (v *Validator) Validate(config *domain.PlannerConfiguration) error {
	var errors ValidationErrors

	if config.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	// Return targets
	if config.TargetAnnualReturn <= 0 {
		errors = append(errors, ValidationError{
			Field:   "target_annual_return",
			Message: "must be greater than 0",
		})
	}

	if config.OptimizerTargetReturn <= 0 {
		errors = append(errors, ValidationError{
			Field:   "optimizer_target_return",
			Message: "must be greater than 0",
		})
	}

	// Unit-interval settings
	for _, f := range []struct {
		field string
		value float64
	}{
		{"min_security_score", config.MinSecurityScore},
		{"optimizer_blend", config.OptimizerBlend},
		{"correlation_threshold", config.CorrelationThreshold},
		{"min_gap_threshold", config.MinGapThreshold},
	} {
		if f.value < 0.0 || f.value > 1.0 {
			errors = append(errors, ValidationError{
				Field:   f.field,
				Message: "must be between 0.0 and 1.0",
			})
		}
	}

	if config.MinCashReserve < 0.0 {
		errors = append(errors, ValidationError{
			Field:   "min_cash_reserve",
			Message: "must be >= 0.0",
		})
	}

	if config.MinSellValueEUR < 0.0 {
		errors = append(errors, ValidationError{
			Field:   "min_sell_value_eur",
			Message: "must be >= 0.0",
		})
	}

	if config.MaxRecommendations <= 0 {
		errors = append(errors, ValidationError{
			Field:   "max_recommendations",
			Message: "must be greater than 0",
		})
	}

	if config.MaxSequenceDepth <= 0 {
		errors = append(errors, ValidationError{
			Field:   "max_sequence_depth",
			Message: "must be greater than 0",
		})
	}

	if config.MinHoldDays < 0 || config.MinHoldDays > 365 {
		errors = append(errors, ValidationError{
			Field:   "min_hold_days",
			Message: "must be between 0 and 365",
		})
	}

	if config.SellCooldownDays < 0 || config.SellCooldownDays > 365 {
		errors = append(errors, ValidationError{
			Field:   "sell_cooldown_days",
			Message: "must be between 0 and 365",
		})
	}

	if config.MaxLossThreshold < -1.0 || config.MaxLossThreshold > 0.0 {
		errors = append(errors, ValidationError{
			Field:   "max_loss_threshold",
			Message: "must be between -1.0 and 0.0",
		})
	}

	if config.CorrelationLookbackDays <= 0 {
		errors = append(errors, ValidationError{
			Field:   "correlation_lookback_days",
			Message: "must be greater than 0",
		})
	}

	if config.CorrelationTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "correlation_timeout_seconds",
			Message: "must be greater than 0",
		})
	}

	for name, weight := range config.StrategyWeights {
		if weight < 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("strategy_weights.%s", name),
				Message: "must be >= 0.0",
			})
		}
	}

	if !config.AllowBuy && !config.AllowSell {
		errors = append(errors, ValidationError{
			Field:   "allow_buy/allow_sell",
			Message: "at least one of allow_buy or allow_sell must be true",
		})
	}

	if len(config.GetEnabledStrategies()) == 0 {
		errors = append(errors, ValidationError{
			Field:   "strategies",
			Message: "at least one strategy must be enabled",
		})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}
