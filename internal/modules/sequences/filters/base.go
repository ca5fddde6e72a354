// Package filters post-processes candidate action sequences.
package filters

import (
	"context"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
)

// SequenceFilter removes sequences that should not reach the final recommendation list.
// Filters never reorder the sequences they keep.
type SequenceFilter interface {
	Name() string
	Filter(ctx context.Context, sequences []domain.ActionSequence, params map[string]interface{}) ([]domain.ActionSequence, error)
}

// BaseFilter carries the name and logger shared by filters.
type BaseFilter struct {
	name string
	log  zerolog.Logger
}

// NewBaseFilter creates a base filter logging under the filter name.
func NewBaseFilter(log zerolog.Logger, name string) *BaseFilter {
	return &BaseFilter{
		name: name,
		log:  log.With().Str("filter", name).Logger(),
	}
}

// Name returns the filter name.
func (b *BaseFilter) Name() string {
	return b.name
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
