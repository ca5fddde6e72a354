package universe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultSyncLookbackDays covers one year of sessions plus the SMA(200) warm-up.
const DefaultSyncLookbackDays = 400

// PriceStore persists daily closes.
type PriceStore interface {
	InsertPrices(ctx context.Context, symbol string, prices []DailyPrice) error
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Requested    int
	Synced       int
	Missing      []string
	Interpolated int
}

// HistoricalSyncService copies daily closes from a remote price source into the local store so
// planning cycles read history without network access.
type HistoricalSyncService struct {
	source         PriceHistorySource
	securities     SecuritySource
	store          PriceStore
	priceValidator *PriceValidator
	lookbackDays   int
	log            zerolog.Logger
}

// NewHistoricalSyncService creates a new historical sync service.
func NewHistoricalSyncService(
	source PriceHistorySource,
	securities SecuritySource,
	store PriceStore,
	priceValidator *PriceValidator,
	log zerolog.Logger,
) *HistoricalSyncService {
	return &HistoricalSyncService{
		source:         source,
		securities:     securities,
		store:          store,
		priceValidator: priceValidator,
		lookbackDays:   DefaultSyncLookbackDays,
		log:            log.With().Str("service", "historical_sync").Logger(),
	}
}

// SyncAll fetches history for every active security in one batch, repairs abnormal closes
// and stores each series. A store failure for one symbol is logged and does not stop the rest.
func (s *HistoricalSyncService) SyncAll(ctx context.Context) (SyncResult, error) {
	securities, err := s.securities.GetAllActive(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to load securities: %w", err)
	}

	symbols := make([]string, 0, len(securities))
	for _, sec := range securities {
		symbols = append(symbols, sec.Symbol)
	}
	result := SyncResult{Requested: len(symbols)}
	if len(symbols) == 0 {
		return result, nil
	}

	history, err := s.source.Fetch(ctx, symbols, s.lookbackDays)
	if err != nil {
		return result, fmt.Errorf("failed to fetch historical prices: %w", err)
	}

	for _, symbol := range symbols {
		prices, ok := history[symbol]
		if !ok || len(prices) == 0 {
			result.Missing = append(result.Missing, symbol)
			continue
		}

		if s.priceValidator != nil {
			var logs []InterpolationLog
			prices, logs = s.priceValidator.ValidateAndInterpolate(prices)
			result.Interpolated += len(logs)
			if len(prices) == 0 {
				result.Missing = append(result.Missing, symbol)
				continue
			}
		}

		if err := s.store.InsertPrices(ctx, symbol, prices); err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store prices")
			continue
		}
		result.Synced++
	}

	s.log.Info().
		Int("requested", result.Requested).
		Int("synced", result.Synced).
		Int("missing", len(result.Missing)).
		Int("interpolated", result.Interpolated).
		Msg("Historical price sync complete")

	return result, nil
}
