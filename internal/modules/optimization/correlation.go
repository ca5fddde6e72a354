// Package optimization builds pairwise return correlations from price history.
package optimization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/aristath/rebalancer/pkg/formulas"
	"github.com/rs/zerolog"
)

const (
	// DefaultLookbackDays is one year of trading sessions.
	DefaultLookbackDays = 252
	// MinHistoryDays is the fewest aligned dates a correlation is computed from.
	MinHistoryDays = 30
)

// TimeSeriesData holds close prices aligned to a shared ascending date axis.
// Missing observations are NaN.
type TimeSeriesData struct {
	Dates []string
	Data  map[string][]float64
}

// CorrelationStore caches correlation maps by key.
type CorrelationStore interface {
	Get(ctx context.Context, key string) (map[string]float64, bool, error)
	Set(ctx context.Context, key string, correlations map[string]float64) error
}

// CorrelationBuilder computes pairwise return correlations for a symbol set.
type CorrelationBuilder struct {
	history universe.PriceHistorySource
	cache   CorrelationStore
	log     zerolog.Logger
}

// NewCorrelationBuilder creates a correlation builder reading from history.
func NewCorrelationBuilder(history universe.PriceHistorySource, log zerolog.Logger) *CorrelationBuilder {
	return &CorrelationBuilder{
		history: history,
		log:     log.With().Str("component", "correlation_builder").Logger(),
	}
}

// SetCache enables result caching. Without a cache every call recomputes.
func (b *CorrelationBuilder) SetCache(cache CorrelationStore) {
	b.cache = cache
}

// PairKey returns the map key of a symbol pair, ordered so that PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Lookup returns the correlation of a pair regardless of the key order used by the map.
func Lookup(correlations map[string]float64, a, b string) (float64, bool) {
	if c, ok := correlations[a+":"+b]; ok {
		return c, true
	}
	c, ok := correlations[b+":"+a]
	return c, ok
}

// BuildCorrelations fetches the history of all symbols in one batch and returns the Pearson
// correlation of daily returns for every pair with a defined correlation, keyed by PairKey.
// Symbols without history are skipped. Fewer than two symbols yields an empty map.
func (b *CorrelationBuilder) BuildCorrelations(ctx context.Context, symbols []string, lookbackDays int) (map[string]float64, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	symbols = uniqueSorted(symbols)
	if len(symbols) < 2 {
		return map[string]float64{}, nil
	}

	key := cacheKey(symbols, lookbackDays)
	if b.cache != nil {
		cached, ok, err := b.cache.Get(ctx, key)
		if err != nil {
			b.log.Warn().Err(err).Msg("Failed to read correlation cache, recalculating")
		} else if ok {
			b.log.Debug().Int("symbols", len(symbols)).Str("hash", key[:8]).Msg("Using cached correlations")
			return cached, nil
		}
	}

	prices, err := b.history.Fetch(ctx, symbols, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	series := alignSeries(prices)
	if len(series.Data) < 2 {
		return map[string]float64{}, nil
	}
	if len(series.Dates) < MinHistoryDays {
		return nil, fmt.Errorf("insufficient price history: only %d days available (need at least %d)",
			len(series.Dates), MinHistoryDays)
	}

	filled := fillMissing(series)
	returns := make(map[string][]float64, len(filled.Data))
	for symbol, closes := range filled.Data {
		returns[symbol] = formulas.CalculateReturns(closes)
	}

	withData := make([]string, 0, len(returns))
	for symbol := range returns {
		withData = append(withData, symbol)
	}
	sort.Strings(withData)

	correlations := make(map[string]float64)
	for i := 0; i < len(withData); i++ {
		for j := i + 1; j < len(withData); j++ {
			corr, ok := formulas.Correlation(returns[withData[i]], returns[withData[j]])
			if !ok {
				continue
			}
			correlations[PairKey(withData[i], withData[j])] = corr
		}
	}

	b.log.Info().
		Int("symbols", len(withData)).
		Int("dates", len(series.Dates)).
		Int("pairs", len(correlations)).
		Msg("Built correlation matrix")

	if b.cache != nil {
		if err := b.cache.Set(ctx, key, correlations); err != nil {
			b.log.Warn().Err(err).Msg("Failed to cache correlations")
		}
	}

	return correlations, nil
}

// alignSeries places every series on the union of their dates.
func alignSeries(prices map[string][]universe.DailyPrice) TimeSeriesData {
	dateSet := make(map[string]bool)
	bySymbol := make(map[string]map[string]float64, len(prices))
	for symbol, series := range prices {
		if len(series) == 0 {
			continue
		}
		bySymbol[symbol] = make(map[string]float64, len(series))
		for _, p := range series {
			bySymbol[symbol][p.Date] = p.Close
			dateSet[p.Date] = true
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	data := make(map[string][]float64, len(bySymbol))
	for symbol, byDate := range bySymbol {
		closes := make([]float64, len(dates))
		for i, d := range dates {
			if c, ok := byDate[d]; ok {
				closes[i] = c
			} else {
				closes[i] = math.NaN()
			}
		}
		data[symbol] = closes
	}

	return TimeSeriesData{Dates: dates, Data: data}
}

// fillMissing forward-fills gaps, then back-fills leading gaps.
func fillMissing(data TimeSeriesData) TimeSeriesData {
	out := TimeSeriesData{Dates: data.Dates, Data: make(map[string][]float64, len(data.Data))}
	for symbol, closes := range data.Data {
		filled := make([]float64, len(closes))
		copy(filled, closes)

		last, haveLast := 0.0, false
		for i := range filled {
			if math.IsNaN(filled[i]) {
				if haveLast {
					filled[i] = last
				}
			} else {
				last, haveLast = filled[i], true
			}
		}

		next, haveNext := 0.0, false
		for i := len(filled) - 1; i >= 0; i-- {
			if math.IsNaN(filled[i]) {
				if haveNext {
					filled[i] = next
				}
			} else {
				next, haveNext = filled[i], true
			}
		}
		out.Data[symbol] = filled
	}
	return out
}

// cacheKey hashes the sorted symbol set and lookback window.
func cacheKey(sortedSymbols []string, lookbackDays int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", strings.Join(sortedSymbols, ","), lookbackDays)))
	return hex.EncodeToString(h[:16])
}

func uniqueSorted(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
