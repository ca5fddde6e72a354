package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/modules/planning"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/universe"
)

type countingJob struct {
	name string
	runs int32
	err  error
}

func (j *countingJob) Name() string {
	if j.name == "" {
		return "counting"
	}
	return j.name
}

func (j *countingJob) Run() error {
	atomic.AddInt32(&j.runs, 1)
	return j.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	tests := []struct {
		name     string
		schedule string
		job      Job
		wantErr  string
	}{
		{name: "descriptor", schedule: "@every 1s", job: &countingJob{name: "a"}},
		{name: "seconds field", schedule: "0 */5 * * * *", job: &countingJob{name: "b"}},
		{name: "invalid schedule", schedule: "not a schedule", job: &countingJob{name: "c"}, wantErr: "failed to schedule job c"},
		{name: "duplicate name", schedule: "@hourly", job: &countingJob{name: "a"}, wantErr: "failed to schedule job a: already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddJob(tt.schedule, tt.job)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	names := []string{}
	for _, st := range s.Status() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))

	failing := &countingJob{name: "failing", err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(failing), "boom")
}

func TestScheduler_RunByName(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	require.NoError(t, s.AddJob("@hourly", ok))
	require.NoError(t, s.AddJob("@hourly", failing))

	require.NoError(t, s.RunByName("ok"))
	assert.EqualError(t, s.RunByName("failing"), "boom")

	err := s.RunByName("missing")
	assert.ErrorIs(t, err, ErrUnknownJob)

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "failing", status[0].Name)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, "boom", status[0].LastError)
	assert.Equal(t, "ok", status[1].Name)
	assert.Equal(t, "@hourly", status[1].Schedule)
	assert.Equal(t, 1, status[1].Runs)
	assert.Empty(t, status[1].LastError)
	assert.False(t, status[1].LastRun.IsZero())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.False(t, s.Status()[0].Next.IsZero())
	s.Stop()
}

type stubRunner struct {
	result *planning.Result
	err    error
	ctx    context.Context
}

func (r *stubRunner) Run(ctx context.Context) (*planning.Result, error) {
	r.ctx = ctx
	return r.result, r.err
}

func TestPlanningCycleJob(t *testing.T) {
	ok := &planning.Result{Recommendations: []domain.Recommendation{{Symbol: "AAA"}}}

	tests := []struct {
		name    string
		runner  *stubRunner
		wantErr string
	}{
		{name: "success", runner: &stubRunner{result: ok}},
		{name: "lock held is skipped", runner: &stubRunner{err: fmt.Errorf("%w: held", planning.ErrPlanningInProgress)}},
		{name: "failure", runner: &stubRunner{err: errors.New("db down")}, wantErr: "planning cycle failed: db down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewPlanningCycleJob(tt.runner, time.Minute, zerolog.Nop())
			assert.Equal(t, "planning_cycle", job.Name())

			err := job.Run()
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			_, hasDeadline := tt.runner.ctx.Deadline()
			assert.True(t, hasDeadline)
		})
	}
}

type stubCache struct {
	purged int64
	err    error
}

func (c stubCache) PurgeExpired(ctx context.Context) (int64, error) {
	return c.purged, c.err
}

func TestCachePurgeJob(t *testing.T) {
	assert.NoError(t, NewCachePurgeJob(stubCache{purged: 3}, zerolog.Nop()).Run())

	err := NewCachePurgeJob(stubCache{err: errors.New("locked")}, zerolog.Nop()).Run()
	assert.EqualError(t, err, "failed to purge cache: locked")
}

type stubSyncer struct {
	result universe.SyncResult
	err    error
}

func (s stubSyncer) SyncAll(ctx context.Context) (universe.SyncResult, error) {
	return s.result, s.err
}

func TestPriceSyncJob(t *testing.T) {
	job := NewPriceSyncJob(stubSyncer{result: universe.SyncResult{Requested: 2, Synced: 1, Missing: []string{"BBB"}}}, time.Minute, zerolog.Nop())
	assert.Equal(t, "price_sync", job.Name())
	assert.NoError(t, job.Run())

	failing := NewPriceSyncJob(stubSyncer{err: errors.New("offline")}, time.Minute, zerolog.Nop())
	assert.EqualError(t, failing.Run(), "price sync failed: offline")
}

type stubLocks struct {
	maxAge  time.Duration
	cleared []string
}

func (l *stubLocks) ClearStuckLocks(maxAge time.Duration) []string {
	l.maxAge = maxAge
	return l.cleared
}

func TestLockMaintenanceJob(t *testing.T) {
	locks := &stubLocks{cleared: []string{"planning"}}
	job := NewLockMaintenanceJob(locks, time.Hour, zerolog.Nop())

	assert.Equal(t, "lock_maintenance", job.Name())
	assert.NoError(t, job.Run())
	assert.Equal(t, time.Hour, locks.maxAge)
}
