package universe

import "context"

// SecuritySource provides the active investable universe.
type SecuritySource interface {
	GetAllActive(ctx context.Context) ([]Security, error)
}

// ScoreSource provides per-security scores in one batch read.
type ScoreSource interface {
	GetScores(ctx context.Context, symbols []string) (map[string]SecurityScore, error)
}

// PriceHistorySource fetches close-price series for many symbols in one round trip.
// Series are returned in ascending date order; symbols without data are omitted.
type PriceHistorySource interface {
	Fetch(ctx context.Context, symbols []string, lookbackDays int) (map[string][]DailyPrice, error)
}
