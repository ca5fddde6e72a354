package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/clients/prices"
	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/locking"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/planning"
	plannerconfig "github.com/aristath/rebalancer/internal/modules/planning/config"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/sequences"
	"github.com/aristath/rebalancer/internal/modules/sequences/filters"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/aristath/rebalancer/internal/services"
)

// InitializeRepositories creates the data access layer over the open databases.
func InitializeRepositories(container *Container, log zerolog.Logger) {
	conn := container.PortfolioDB.Conn()

	container.PositionRepo = portfolio.NewPositionRepository(conn, log)
	container.SecurityRepo = universe.NewSecurityRepository(conn, log)
	container.ScoreRepo = universe.NewScoreRepository(conn, log)
	container.PriceHistory = universe.NewHistoryDB(conn, log)
	container.AllocationRepo = allocation.NewRepository(conn, log)

	container.CorrelationCache = optimization.NewCorrelationCache(container.CacheDB.Conn(), log)
}

// InitializeServices builds the planning engine and its collaborators.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	plannerCfg, err := plannerconfig.NewLoader(log).Load(cfg.PlannerConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load planner config: %w", err)
	}
	container.PlannerConfig = plannerCfg

	// Correlations are read from the local store; the remote API only feeds the sync job
	container.CorrelationBuilder = optimization.NewCorrelationBuilder(container.PriceHistory, log)
	container.CorrelationBuilder.SetCache(container.CorrelationCache)

	container.SequencesService = sequences.NewService(log, filters.NewPopulatedFilterRegistry(log, container.CorrelationBuilder))

	sizer := services.NewTradeSizingService(log)
	container.StrategyRegistry = strategies.NewDefaultRegistry(strategies.DepsFromConfig(plannerCfg, sizer, nil), log)

	container.ContextBuilder = services.NewPortfolioContextBuilder(services.ContextBuilderDeps{
		Positions:  container.PositionRepo,
		Cash:       container.PositionRepo,
		Securities: container.SecurityRepo,
		Targets:    container.AllocationRepo,
		Groups:     container.AllocationRepo,
		Scores:     container.ScoreRepo,
		History:    container.PriceHistory,
	}, log).WithTimeout(cfg.FetchTimeout)

	container.Locks = locking.NewManager()
	container.RecommendationService = planning.NewRecommendationService(
		container.ContextBuilder,
		container.StrategyRegistry,
		container.SequencesService,
		plannerCfg,
		planning.NewMetrics(container.Metrics),
		container.Locks,
		log,
	)

	if cfg.PriceAPIURL != "" {
		client := prices.NewClient(cfg.PriceAPIURL, cfg.FetchTimeout, log)
		container.HistoricalSync = universe.NewHistoricalSyncService(
			client,
			container.SecurityRepo,
			container.PriceHistory,
			universe.NewPriceValidator(log),
			log,
		)
	} else {
		log.Warn().Msg("PRICE_API_URL not set, price history sync disabled")
	}

	return nil
}

// planningTimeout bounds one scheduled cycle: the context build plus the correlation budget.
func planningTimeout(cfg *config.Config, correlationTimeoutSeconds int) time.Duration {
	return cfg.FetchTimeout + time.Duration(correlationTimeoutSeconds)*time.Second + time.Minute
}
