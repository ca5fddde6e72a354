package sequences

import (
	"context"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/aristath/rebalancer/internal/modules/sequences/filters"
	"github.com/rs/zerolog"
)

// Service generates and filters trading sequences.
type Service struct {
	generator      *Generator
	filterRegistry *filters.FilterRegistry
	log            zerolog.Logger
}

// NewService creates a new sequences service.
func NewService(log zerolog.Logger, filterRegistry *filters.FilterRegistry) *Service {
	return &Service{
		generator:      NewGenerator(log),
		filterRegistry: filterRegistry,
		log:            log.With().Str("module", "sequences").Logger(),
	}
}

// GenerateSequences builds candidate sequences from actions and applies the enabled filters.
// The result stays ordered best first.
func (s *Service) GenerateSequences(
	ctx context.Context,
	actions []domain.ActionCandidate,
	availableCash float64,
	config *domain.PlannerConfiguration,
) []domain.ActionSequence {
	genConfig := DefaultGenerationConfig()
	genConfig.AvailableCash = availableCash
	if config != nil && config.MaxSequenceDepth > 0 {
		genConfig.MaxDepth = config.MaxSequenceDepth
	}

	sequences := s.generator.Generate(actions, genConfig)

	s.log.Info().
		Int("pre_filter_sequences", len(sequences)).
		Msg("Sequences generated, applying filters")

	if s.filterRegistry != nil && config != nil {
		sequences = s.filterRegistry.ApplyFilters(ctx, sequences, config)
	}

	s.log.Info().
		Int("final_sequences", len(sequences)).
		Msg("Sequence generation complete")
	return sequences
}

// SelectBest returns the best surviving sequence.
func SelectBest(sequences []domain.ActionSequence) (domain.ActionSequence, bool) {
	if len(sequences) == 0 {
		return domain.ActionSequence{}, false
	}
	best := sequences[0]
	for _, seq := range sequences[1:] {
		if Score(seq) > Score(best) {
			best = seq
		}
	}
	return best, true
}
