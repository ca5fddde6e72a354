package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/planning"
	"github.com/aristath/rebalancer/internal/modules/universe"
)

// PlanningRunner runs one planning cycle.
type PlanningRunner interface {
	Run(ctx context.Context) (*planning.Result, error)
}

// PlanningCycleJob refreshes recommendations on a schedule.
type PlanningCycleJob struct {
	runner  PlanningRunner
	timeout time.Duration
	log     zerolog.Logger
}

// NewPlanningCycleJob creates the job. Each run is bounded by timeout.
func NewPlanningCycleJob(runner PlanningRunner, timeout time.Duration, log zerolog.Logger) *PlanningCycleJob {
	return &PlanningCycleJob{
		runner:  runner,
		timeout: timeout,
		log:     log.With().Str("job", "planning_cycle").Logger(),
	}
}

// Name returns the job name
func (j *PlanningCycleJob) Name() string {
	return "planning_cycle"
}

// Run executes one cycle. A cycle skipped because execution holds the planning lock is not
// a failure.
func (j *PlanningCycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.runner.Run(ctx)
	if errors.Is(err, planning.ErrPlanningInProgress) {
		j.log.Warn().Err(err).Msg("Planning lock held, skipping cycle")
		return nil
	}
	if err != nil {
		return fmt.Errorf("planning cycle failed: %w", err)
	}

	j.log.Info().
		Int("recommendations", len(result.Recommendations)).
		Str("sequence", result.Sequence.SequenceHash).
		Msg("Planning cycle finished")
	return nil
}

// ExpiringCache drops entries past their expiry.
type ExpiringCache interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CachePurgeJob removes expired correlation cache entries.
type CachePurgeJob struct {
	cache ExpiringCache
	log   zerolog.Logger
}

// NewCachePurgeJob creates the job.
func NewCachePurgeJob(cache ExpiringCache, log zerolog.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		cache: cache,
		log:   log.With().Str("job", "cache_purge").Logger(),
	}
}

// Name returns the job name
func (j *CachePurgeJob) Name() string {
	return "cache_purge"
}

// Run purges expired entries.
func (j *CachePurgeJob) Run() error {
	n, err := j.cache.PurgeExpired(context.Background())
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	if n > 0 {
		j.log.Info().Int64("purged", n).Msg("Expired cache entries removed")
	}
	return nil
}

// PriceSyncer refreshes stored price history.
type PriceSyncer interface {
	SyncAll(ctx context.Context) (universe.SyncResult, error)
}

// PriceSyncJob refreshes daily closes ahead of planning cycles.
type PriceSyncJob struct {
	syncer  PriceSyncer
	timeout time.Duration
	log     zerolog.Logger
}

// NewPriceSyncJob creates the job. Each run is bounded by timeout.
func NewPriceSyncJob(syncer PriceSyncer, timeout time.Duration, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		syncer:  syncer,
		timeout: timeout,
		log:     log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run syncs price history for the whole universe.
func (j *PriceSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.syncer.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("price sync failed: %w", err)
	}
	if len(result.Missing) > 0 {
		j.log.Warn().Strs("missing", result.Missing).Msg("No price history for some securities")
	}
	return nil
}

// StuckLockClearer releases locks held longer than maxAge.
type StuckLockClearer interface {
	ClearStuckLocks(maxAge time.Duration) []string
}

// LockMaintenanceJob frees locks left behind by crashed or hung holders.
type LockMaintenanceJob struct {
	locks  StuckLockClearer
	maxAge time.Duration
	log    zerolog.Logger
}

// NewLockMaintenanceJob creates the job.
func NewLockMaintenanceJob(locks StuckLockClearer, maxAge time.Duration, log zerolog.Logger) *LockMaintenanceJob {
	return &LockMaintenanceJob{
		locks:  locks,
		maxAge: maxAge,
		log:    log.With().Str("job", "lock_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *LockMaintenanceJob) Name() string {
	return "lock_maintenance"
}

// Run clears stuck locks.
func (j *LockMaintenanceJob) Run() error {
	cleared := j.locks.ClearStuckLocks(j.maxAge)
	if len(cleared) > 0 {
		j.log.Warn().Strs("locks", cleared).Msg("Cleared stuck locks")
	}
	return nil
}
