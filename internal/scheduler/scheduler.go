// Package scheduler runs the rebalancer's background jobs on cron schedules.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned by RunByName for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a unit of background work.
type Job interface {
	Run() error
	Name() string
}

// JobStatus describes a registered job and its last run.
type JobStatus struct {
	Name         string
	Schedule     string
	Next         time.Time
	LastRun      time.Time
	LastDuration time.Duration
	LastError    string
	Runs         int
}

type registration struct {
	job      Job
	schedule string
	entry    cron.EntryID
}

// Scheduler runs registered jobs on cron schedules with a leading seconds field.
// A run still in progress makes the next tick of the same job a no-op.
type Scheduler struct {
	cron *cron.Cron
	now  func() time.Time

	mu    sync.Mutex
	jobs  map[string]registration
	stats map[string]JobStatus

	log zerolog.Logger
}

// New creates a scheduler.
func New(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		now:   time.Now,
		jobs:  make(map[string]registration),
		stats: make(map[string]JobStatus),
		log:   log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job under schedule, e.g. "0 */5 * * * *", "@hourly" or "@every 30s".
// Job names must be unique.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	name := job.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("failed to schedule job %s: already registered", name)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("Job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = registration{job: job, schedule: schedule, entry: id}
	s.log.Info().Str("schedule", schedule).Str("job", name).Msg("Job registered")
	return nil
}

// RunNow executes a job immediately and records the outcome.
func (s *Scheduler) RunNow(job Job) error {
	name := job.Name()
	start := s.now()
	s.log.Debug().Str("job", name).Msg("Running job")

	err := job.Run()

	s.mu.Lock()
	st := s.stats[name]
	st.Runs++
	st.LastRun = start
	st.LastDuration = s.now().Sub(start)
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	s.stats[name] = st
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.log.Debug().Str("job", name).Dur("duration", st.LastDuration).Msg("Job completed")
	return nil
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(name string) error {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.RunNow(reg.job)
}

// Status lists registered jobs by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for name, reg := range s.jobs {
		st := s.stats[name]
		st.Name = name
		st.Schedule = reg.schedule
		st.Next = s.cron.Entry(reg.entry).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes cron's own messages, such as skipped overlapping runs, to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
