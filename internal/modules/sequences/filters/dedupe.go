package filters

import (
	"context"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
)

// DedupeFilter removes sequences whose hash was already seen, keeping the first occurrence.
// Bundles built from a single action hash the same as that action's single sequence.
type DedupeFilter struct {
	*BaseFilter
}

// NewDedupeFilter creates a new deduplication filter.
func NewDedupeFilter(log zerolog.Logger) *DedupeFilter {
	return &DedupeFilter{BaseFilter: NewBaseFilter(log, domain.FilterDedupe)}
}

// Filter removes duplicate sequences. Sequences without a hash are kept.
func (f *DedupeFilter) Filter(
	_ context.Context,
	sequences []domain.ActionSequence,
	_ map[string]interface{},
) ([]domain.ActionSequence, error) {
	if len(sequences) == 0 {
		return sequences, nil
	}

	seen := make(map[string]bool)
	result := make([]domain.ActionSequence, 0, len(sequences))
	duplicates := 0

	for _, seq := range sequences {
		if seq.SequenceHash == "" {
			result = append(result, seq)
			continue
		}
		if seen[seq.SequenceHash] {
			duplicates++
			continue
		}
		seen[seq.SequenceHash] = true
		result = append(result, seq)
	}

	if duplicates > 0 {
		f.log.Debug().
			Int("input", len(sequences)).
			Int("output", len(result)).
			Int("duplicates_removed", duplicates).
			Msg("Deduplicated sequences")
	}
	return result, nil
}
