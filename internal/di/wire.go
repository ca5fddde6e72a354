package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	allocationhandlers "github.com/aristath/rebalancer/internal/modules/allocation/handlers"
	planninghandlers "github.com/aristath/rebalancer/internal/modules/planning/handlers"
	"github.com/aristath/rebalancer/internal/server"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order: databases, repositories, services, jobs, HTTP modules.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Metrics: prometheus.NewRegistry()}
	container.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := InitializeDatabases(cfg, container); err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := RegisterJobs(container, cfg, log); err != nil {
		container.Close()
		return nil, err
	}

	container.Modules = []server.RouteRegistrar{
		planninghandlers.NewHandler(container.RecommendationService, log),
		allocationhandlers.NewHandler(container.RecommendationService, container.AllocationRepo, log),
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
