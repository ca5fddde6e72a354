package filters

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
)

// FilterRegistry maps filter names to filters.
type FilterRegistry struct {
	filters map[string]SequenceFilter
	mu      sync.RWMutex
	log     zerolog.Logger
}

// NewFilterRegistry creates an empty filter registry.
func NewFilterRegistry(log zerolog.Logger) *FilterRegistry {
	return &FilterRegistry{
		filters: make(map[string]SequenceFilter),
		log:     log.With().Str("component", "filter_registry").Logger(),
	}
}

// NewPopulatedFilterRegistry creates a registry with the dedupe and correlation-aware filters.
func NewPopulatedFilterRegistry(log zerolog.Logger, correlations CorrelationProvider) *FilterRegistry {
	registry := NewFilterRegistry(log)
	registry.Register(NewDedupeFilter(log))
	registry.Register(NewCorrelationAwareFilter(log, correlations))
	return registry
}

// Register adds a filter, replacing any with the same name.
func (r *FilterRegistry) Register(filter SequenceFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[filter.Name()] = filter
	r.log.Debug().Str("name", filter.Name()).Msg("Registered filter")
}

// Get retrieves a filter by name.
func (r *FilterRegistry) Get(name string) (SequenceFilter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	filter, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("filter not found: %s", name)
	}
	return filter, nil
}

// GetEnabled returns the filters enabled by config, in application order.
func (r *FilterRegistry) GetEnabled(config *domain.PlannerConfiguration) []SequenceFilter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var enabled []SequenceFilter
	for _, name := range config.GetEnabledFilters() {
		if filter, ok := r.filters[name]; ok {
			enabled = append(enabled, filter)
		}
	}
	return enabled
}

// ApplyFilters runs the enabled filters in order. A failing filter is logged and skipped so
// its input flows to the next filter unchanged.
func (r *FilterRegistry) ApplyFilters(
	ctx context.Context,
	sequences []domain.ActionSequence,
	config *domain.PlannerConfiguration,
) []domain.ActionSequence {
	result := sequences
	for _, filter := range r.GetEnabled(config) {
		filtered, err := filter.Filter(ctx, result, config.GetFilterParams(filter.Name()))
		if err != nil {
			r.log.Error().Err(err).Str("filter", filter.Name()).Msg("Filter failed")
			continue
		}
		r.log.Debug().
			Str("filter", filter.Name()).
			Int("before", len(result)).
			Int("after", len(filtered)).
			Msg("Applied filter")
		result = filtered
	}
	return result
}
