// Package di wires the rebalancer's databases, repositories, services and jobs.
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/locking"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/planning"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/sequences"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/aristath/rebalancer/internal/server"
	"github.com/aristath/rebalancer/internal/services"
)

// Container holds all application dependencies. It is created by Wire.
type Container struct {
	// Databases
	PortfolioDB *database.DB // Positions, cash, universe, scores, allocation policy, daily prices
	CacheDB     *database.DB // Correlation cache

	// Repositories
	PositionRepo   *portfolio.PositionRepository
	SecurityRepo   *universe.SecurityRepository
	ScoreRepo      *universe.ScoreRepository
	PriceHistory   *universe.HistoryDB
	AllocationRepo *allocation.Repository

	// Services
	PlannerConfig         *domain.PlannerConfiguration
	CorrelationCache      *optimization.CorrelationCache
	CorrelationBuilder    *optimization.CorrelationBuilder
	StrategyRegistry      *strategies.Registry
	SequencesService      *sequences.Service
	ContextBuilder        *services.PortfolioContextBuilder
	RecommendationService *planning.RecommendationService
	HistoricalSync        *universe.HistoricalSyncService // nil without a price API
	Locks                 *locking.Manager

	// Runtime
	Metrics   *prometheus.Registry
	Scheduler *scheduler.Scheduler
	Jobs      []ScheduledJob
	Modules   []server.RouteRegistrar
}

// ScheduledJob pairs a job with its cron expression.
type ScheduledJob struct {
	Schedule string
	Job      scheduler.Job
}

// HealthChecks returns the databases probed by /health.
func (c *Container) HealthChecks() []server.HealthChecker {
	return []server.HealthChecker{c.PortfolioDB, c.CacheDB}
}

// Close releases both databases.
func (c *Container) Close() {
	if c.PortfolioDB != nil {
		_ = c.PortfolioDB.Close()
	}
	if c.CacheDB != nil {
		_ = c.CacheDB.Close()
	}
}
