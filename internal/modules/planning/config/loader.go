package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
)

// Loader handles loading planner configurations from TOML files.
// Every loaded configuration is validated; invalid files fail at load time.
type Loader struct {
	validator *Validator
	log       zerolog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		validator: NewValidator(),
		log:       log.With().Str("component", "config_loader").Logger(),
	}
}

// Load reads configPath when set, or returns the validated defaults when it is empty.
func (l *Loader) Load(configPath string) (*domain.PlannerConfiguration, error) {
	if configPath == "" {
		l.log.Info().Msg("No planner config file set, using defaults")
		config := domain.NewDefaultConfiguration()
		if err := l.validator.Validate(config); err != nil {
			return nil, fmt.Errorf("invalid default planner config: %w", err)
		}
		return config, nil
	}
	return l.LoadFromFile(configPath)
}

// LoadFromFile loads a planner configuration from a TOML file.
func (l *Loader) LoadFromFile(configPath string) (*domain.PlannerConfiguration, error) {
	l.log.Info().Str("path", configPath).Msg("Loading planner configuration")

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := l.LoadFromString(string(data))
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("name", config.Name).
		Strs("strategies", config.GetEnabledStrategies()).
		Strs("filters", config.GetEnabledFilters()).
		Msg("Configuration loaded successfully")

	return config, nil
}

// LoadFromString loads a planner configuration from a TOML string.
// Keys absent from the document keep their default values.
func (l *Loader) LoadFromString(tomlString string) (*domain.PlannerConfiguration, error) {
	config := domain.NewDefaultConfiguration()
	md, err := toml.Decode(tomlString, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		l.log.Warn().Str("keys", strings.Join(keys, ",")).Msg("Ignoring unknown planner config keys")
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}

	return config, nil
}

// ToString converts a planner configuration to a TOML string.
func (l *Loader) ToString(config *domain.PlannerConfiguration) (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config to TOML: %w", err)
	}
	return sb.String(), nil
}
