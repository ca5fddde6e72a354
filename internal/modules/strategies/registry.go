package strategies

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps strategy names to instances. It is built at startup and passed to the planner.
type Registry struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
	log        zerolog.Logger
}

// NewRegistry creates a registry holding the given strategies.
func NewRegistry(log zerolog.Logger, strategies ...Strategy) *Registry {
	r := &Registry{
		strategies: make(map[string]Strategy),
		log:        log.With().Str("component", "strategy_registry").Logger(),
	}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// NewDefaultRegistry creates a registry with the diversification, sustainability and
// opportunity strategies.
func NewDefaultRegistry(deps Deps, log zerolog.Logger) *Registry {
	return NewRegistry(log,
		NewDiversificationStrategy(deps, log),
		NewSustainabilityStrategy(deps, log),
		NewOpportunityStrategy(deps, log),
	)
}

// Register registers a strategy, replacing any with the same name.
func (r *Registry) Register(strategy Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[strategy.Name()] = strategy
	r.log.Debug().Str("name", strategy.Name()).Msg("Registered strategy")
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", name)
	}
	return strategy, nil
}

// Names returns registered strategy names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetEnabled returns the named strategies in the given order, skipping unknown names.
func (r *Registry) GetEnabled(names []string) []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enabled []Strategy
	for _, name := range names {
		if s, ok := r.strategies[name]; ok {
			enabled = append(enabled, s)
		} else {
			r.log.Warn().Str("name", name).Msg("Enabled strategy not found in registry")
		}
	}
	return enabled
}
