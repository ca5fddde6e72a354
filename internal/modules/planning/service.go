// Package planning turns a portfolio snapshot into a bounded list of trade recommendations.
package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/locking"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/planning/planner"
	"github.com/aristath/rebalancer/internal/modules/sequences"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/internal/services"
)

// ErrPlanningInProgress is returned when another cycle or a trade execution holds the lock.
var ErrPlanningInProgress = errors.New("planning already in progress")

// ContextBuilder produces the snapshot a cycle works on.
type ContextBuilder interface {
	Build(ctx context.Context) (*services.PlanningSnapshot, error)
}

// Locker serializes planning against trade execution.
type Locker interface {
	Acquire(name string) error
	Release(name string)
}

// Result is the outcome of one planning cycle.
type Result struct {
	Plan            domain.StrategicPlan    `json:"plan"`
	Sequence        domain.ActionSequence   `json:"sequence"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	AvailableCash   float64                 `json:"available_cash"`
	GeneratedAt     time.Time               `json:"generated_at"`
}

// RecommendationService runs planning cycles: build context, plan goals, collect actions,
// generate and filter sequences, assemble recommendations.
type RecommendationService struct {
	builder   ContextBuilder
	planner   *planner.GoalPlanner
	sequences *sequences.Service
	config    *domain.PlannerConfiguration
	metrics   *Metrics
	locker    Locker
	now       func() time.Time
	newID     func() string

	mu     sync.RWMutex
	latest *Result

	log zerolog.Logger
}

// NewRecommendationService creates the service. A nil config uses the defaults; metrics and
// locker are optional.
func NewRecommendationService(
	builder ContextBuilder,
	registry *strategies.Registry,
	sequencesService *sequences.Service,
	config *domain.PlannerConfiguration,
	metrics *Metrics,
	locker Locker,
	log zerolog.Logger,
) *RecommendationService {
	if config == nil {
		config = domain.NewDefaultConfiguration()
	}
	return &RecommendationService{
		builder:   builder,
		planner:   planner.NewGoalPlanner(registry, config, log),
		sequences: sequencesService,
		config:    config,
		metrics:   metrics,
		locker:    locker,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		log:       log.With().Str("service", "recommendations").Logger(),
	}
}

// Config returns the planner configuration in use.
func (s *RecommendationService) Config() *domain.PlannerConfiguration {
	return s.config
}

// Run executes one planning cycle and stores its result as the latest.
func (s *RecommendationService) Run(ctx context.Context) (*Result, error) {
	if s.locker != nil {
		if err := s.locker.Acquire(locking.PlanningLock); err != nil {
			s.observe("skipped", 0)
			return nil, fmt.Errorf("%w: %v", ErrPlanningInProgress, err)
		}
		defer s.locker.Release(locking.PlanningLock)
	}

	start := s.now()
	result, err := s.run(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.observe("error", elapsed)
		s.log.Error().Err(err).Msg("Planning cycle failed")
		return nil, err
	}
	s.observe("success", elapsed)

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	s.log.Info().
		Int("goals", len(result.Plan.Steps)).
		Int("recommendations", len(result.Recommendations)).
		Dur("duration", elapsed).
		Msg("Planning cycle complete")

	return result, nil
}

// Latest returns the result of the last successful cycle, if any.
func (s *RecommendationService) Latest() (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// AllocationStatus reports every country and industry bucket against its target.
func (s *RecommendationService) AllocationStatus(ctx context.Context) ([]domain.AllocationStatus, error) {
	snap, err := s.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio context: %w", err)
	}
	pc := snap.Context

	_, countryValues := allocation.CalculateCurrentAllocations(pc.Positions, pc.StockCountries, pc.TotalValue)
	_, industryValues := allocation.CalculateCurrentAllocations(pc.Positions, pc.StockIndustries, pc.TotalValue)

	statuses := allocation.BuildAllocationStatuses(allocation.CategoryCountry, pc.CountryWeights, pc.CountryAllocations, countryValues)
	statuses = append(statuses, allocation.BuildAllocationStatuses(allocation.CategoryIndustry, pc.IndustryWeights, pc.IndustryAllocations, industryValues)...)
	return statuses, nil
}

func (s *RecommendationService) run(ctx context.Context) (*Result, error) {
	snap, err := s.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio context: %w", err)
	}

	plan := s.planner.CreatePlan(snap.Context, snap.Positions, snap.Securities)

	deployable := snap.AvailableCashEUR - s.config.MinCashReserve
	if deployable < 0 {
		deployable = 0
	}
	plan = s.planner.PopulateActions(plan, snap.Context, snap.Positions, snap.Securities, deployable)
	actions := planner.Actions(plan)

	s.log.Debug().
		Int("goals", len(plan.Steps)).
		Int("actions", len(actions)).
		Float64("deployable_cash", deployable).
		Msg("Plan populated")

	result := &Result{
		Plan:            plan,
		Recommendations: []domain.Recommendation{},
		AvailableCash:   snap.AvailableCashEUR,
		GeneratedAt:     s.now(),
	}

	seqs := s.sequences.GenerateSequences(ctx, actions, deployable, s.config)
	if s.metrics != nil {
		s.metrics.GoalsPlanned.Set(float64(len(plan.Steps)))
		s.metrics.SequencesKept.Set(float64(len(seqs)))
	}

	best, ok := sequences.SelectBest(seqs)
	if !ok {
		s.log.Info().Msg("No viable sequence, nothing to recommend")
		s.recordRecommendations(nil)
		return result, nil
	}

	result.Sequence = best
	result.Recommendations = s.assemble(best.Actions, snap.AvailableCashEUR)
	s.recordRecommendations(result.Recommendations)
	return result, nil
}

// assemble converts actions into recommendations: sells first, one per symbol, buys only
// while cash above the reserve covers them, at most MaxRecommendations.
func (s *RecommendationService) assemble(actions []domain.ActionCandidate, availableCash float64) []domain.Recommendation {
	ordered := make([]domain.ActionCandidate, len(actions))
	copy(ordered, actions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Side == domain.TradeSideSell && ordered[j].Side != domain.TradeSideSell
	})

	spendable := availableCash - s.config.MinCashReserve
	seen := make(map[string]bool, len(ordered))
	recs := make([]domain.Recommendation, 0, len(ordered))

	for _, action := range ordered {
		if s.config.MaxRecommendations > 0 && len(recs) >= s.config.MaxRecommendations {
			break
		}
		if action.Quantity <= 0 || seen[action.Symbol] {
			continue
		}

		switch action.Side {
		case domain.TradeSideSell:
			spendable += action.ValueEUR
		case domain.TradeSideBuy:
			if action.ValueEUR > spendable {
				s.log.Debug().
					Str("symbol", action.Symbol).
					Float64("value", action.ValueEUR).
					Float64("spendable", spendable).
					Msg("Skipping buy, insufficient cash")
				continue
			}
			spendable -= action.ValueEUR
		default:
			continue
		}

		seen[action.Symbol] = true
		recs = append(recs, domain.Recommendation{
			UUID:         s.newID(),
			Symbol:       action.Symbol,
			Name:         action.Name,
			Side:         action.Side,
			Quantity:     action.Quantity,
			Price:        action.Price,
			Amount:       action.ValueEUR,
			Currency:     action.Currency,
			Reason:       action.Reason,
			Priority:     action.Priority,
			StrategyType: action.StrategyType,
			GoalKey:      action.GoalKey,
		})
	}

	return recs
}

func (s *RecommendationService) observe(outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		s.metrics.CycleDuration.Observe(elapsed.Seconds())
	}
}

func (s *RecommendationService) recordRecommendations(recs []domain.Recommendation) {
	if s.metrics == nil {
		return
	}
	counts := map[domain.TradeSide]int{domain.TradeSideBuy: 0, domain.TradeSideSell: 0}
	for _, r := range recs {
		counts[r.Side]++
	}
	for side, n := range counts {
		s.metrics.Recommendations.WithLabelValues(string(side)).Set(float64(n))
	}
}
