// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for all databases, always absolute
	LogLevel          string
	LogPretty         bool
	Port              int
	DevMode           bool
	PlannerConfigPath string // Optional TOML planner configuration
	PriceAPIURL       string // Batch price history endpoint; empty disables history-backed features
	PlanningSchedule  string // Cron expression with seconds field
	FetchTimeout      time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("REBALANCER_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		Port:              getEnvAsInt("HTTP_PORT", 8080),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		PlannerConfigPath: getEnv("PLANNER_CONFIG_PATH", ""),
		PriceAPIURL:       getEnv("PRICE_API_URL", ""),
		PlanningSchedule:  getEnv("PLANNING_SCHEDULE", "0 0 */4 * * *"), // Every 4 hours
		FetchTimeout:      time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that values parsed from the environment are usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.Port)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %s", c.FetchTimeout)
	}
	if c.PlanningSchedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.PlanningSchedule); err != nil {
			return fmt.Errorf("invalid PLANNING_SCHEDULE %q: %w", c.PlanningSchedule, err)
		}
	}
	return nil
}

// PortfolioDBPath is the SQLite file holding positions, securities, scores and targets.
func (c *Config) PortfolioDBPath() string {
	return filepath.Join(c.DataDir, "portfolio.db")
}

// CacheDBPath is the SQLite file holding derived caches.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
