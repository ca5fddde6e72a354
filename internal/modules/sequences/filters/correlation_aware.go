package filters

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultCorrelationThreshold = 0.7
	DefaultCorrelationTimeout   = 10 * time.Second
)

// CorrelationProvider builds pairwise return correlations keyed "A:B".
type CorrelationProvider interface {
	BuildCorrelations(ctx context.Context, symbols []string, lookbackDays int) (map[string]float64, error)
}

// CorrelationAwareFilter drops sequences that buy two strongly correlated securities.
//
// Params:
//   - correlation_threshold: absolute correlation above which a pair is rejected (0.7)
//   - lookback_days: history window in trading sessions (252)
//   - timeout_seconds: bound on building the correlations (10)
//   - correlation_matrix: precomputed map[string]float64, skips the build
//
// Missing history, build errors and timeouts pass all sequences through.
type CorrelationAwareFilter struct {
	*BaseFilter
	correlations CorrelationProvider
}

// NewCorrelationAwareFilter creates a correlation-aware filter. A nil provider only honors a
// pre-provided correlation_matrix.
func NewCorrelationAwareFilter(log zerolog.Logger, correlations CorrelationProvider) *CorrelationAwareFilter {
	return &CorrelationAwareFilter{
		BaseFilter:   NewBaseFilter(log, domain.FilterCorrelationAware),
		correlations: correlations,
	}
}

// Filter removes every sequence containing a BUY pair with |correlation| > threshold.
func (f *CorrelationAwareFilter) Filter(
	ctx context.Context,
	sequences []domain.ActionSequence,
	params map[string]interface{},
) ([]domain.ActionSequence, error) {
	if len(sequences) == 0 {
		return sequences, nil
	}

	threshold := floatParam(params, "correlation_threshold", DefaultCorrelationThreshold)
	lookbackDays := intParam(params, "lookback_days", optimization.DefaultLookbackDays)
	timeout := DefaultCorrelationTimeout
	if secs := floatParam(params, "timeout_seconds", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	correlationMap, ok := params["correlation_matrix"].(map[string]float64)
	if ok {
		f.log.Debug().Msg("Using pre-provided correlation matrix")
	} else {
		correlationMap = f.buildCorrelationMap(ctx, sequences, lookbackDays, timeout)
	}
	if len(correlationMap) == 0 {
		return sequences, nil
	}

	filtered := make([]domain.ActionSequence, 0, len(sequences))
	removed := 0
	for _, seq := range sequences {
		buys := seq.BuySymbols()
		if len(buys) >= 2 && hasHighCorrelation(buys, correlationMap, threshold) {
			removed++
			f.log.Debug().
				Str("sequence_hash", seq.SequenceHash).
				Strs("buy_symbols", buys).
				Msg("Filtered sequence due to high correlation")
			continue
		}
		filtered = append(filtered, seq)
	}

	if removed > 0 {
		f.log.Info().
			Int("before", len(sequences)).
			Int("after", len(filtered)).
			Int("removed", removed).
			Float64("threshold", threshold).
			Msg("Correlation filtering complete")
	}
	return filtered, nil
}

// buildCorrelationMap builds correlations for every BUY symbol in one batch, bounded by
// timeout. Failures yield an empty map.
func (f *CorrelationAwareFilter) buildCorrelationMap(
	ctx context.Context,
	sequences []domain.ActionSequence,
	lookbackDays int,
	timeout time.Duration,
) map[string]float64 {
	symbols := allBuySymbols(sequences)
	if len(symbols) < 2 || f.correlations == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	correlationMap, err := f.correlations.BuildCorrelations(ctx, symbols, lookbackDays)
	if err != nil {
		f.log.Warn().Err(err).Msg("Failed to build correlation data, passing all sequences through")
		return nil
	}
	f.log.Debug().
		Int("symbols", len(symbols)).
		Int("pairs", len(correlationMap)).
		Msg("Built correlation matrix")
	return correlationMap
}

// allBuySymbols returns the distinct BUY symbols across all sequences, sorted.
func allBuySymbols(sequences []domain.ActionSequence) []string {
	set := make(map[string]bool)
	for _, seq := range sequences {
		for _, symbol := range seq.BuySymbols() {
			set[symbol] = true
		}
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// hasHighCorrelation reports whether any pair of symbols correlates beyond threshold in
// absolute value.
func hasHighCorrelation(symbols []string, correlationMap map[string]float64, threshold float64) bool {
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			if corr, ok := optimization.Lookup(correlationMap, symbols[i], symbols[j]); ok && math.Abs(corr) > threshold {
				return true
			}
		}
	}
	return false
}
