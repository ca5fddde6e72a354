package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/scheduler"
)

const (
	cachePurgeSchedule = "@hourly"
	lockCheckSchedule  = "0 */15 * * * *"
	stuckLockMaxAge    = time.Hour
	priceSyncSchedule  = "0 30 5 * * *" // Daily, ahead of the first planning cycle
)

// RegisterJobs creates the background jobs and adds them to the container's scheduler.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Scheduler = scheduler.New(log)

	container.Jobs = []ScheduledJob{
		{
			Schedule: cfg.PlanningSchedule,
			Job: scheduler.NewPlanningCycleJob(
				container.RecommendationService,
				planningTimeout(cfg, container.PlannerConfig.CorrelationTimeoutSeconds),
				log,
			),
		},
		{Schedule: cachePurgeSchedule, Job: scheduler.NewCachePurgeJob(container.CorrelationCache, log)},
		{Schedule: lockCheckSchedule, Job: scheduler.NewLockMaintenanceJob(container.Locks, stuckLockMaxAge, log)},
	}

	if container.HistoricalSync != nil {
		container.Jobs = append(container.Jobs, ScheduledJob{
			Schedule: priceSyncSchedule,
			Job:      scheduler.NewPriceSyncJob(container.HistoricalSync, cfg.FetchTimeout*4, log),
		})
	}

	for _, sj := range container.Jobs {
		if err := container.Scheduler.AddJob(sj.Schedule, sj.Job); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
	}

	log.Info().Int("jobs", len(container.Jobs)).Msg("Background jobs registered")
	return nil
}
