// Package universe models the investable securities, their scores and price history.
package universe

import "time"

// Security represents a security in the investment universe.
// Country and Industry are single bucket keys; group mapping happens in the context builder.
type Security struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Country      string  `json:"country,omitempty"`
	Industry     string  `json:"industry,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	CurrencyRate float64 `json:"currency_rate"` // EUR value of one unit of Currency
	Price        float64 `json:"price"`         // Latest price in native currency
	MinLot       int     `json:"min_lot"`
	Active       bool    `json:"active"`
	AllowBuy     bool    `json:"allow_buy"`
	AllowSell    bool    `json:"allow_sell"`
}

// PriceEUR returns the latest price converted to EUR.
func (s Security) PriceEUR() float64 {
	rate := s.CurrencyRate
	if rate <= 0 {
		rate = 1.0
	}
	return s.Price * rate
}

// EffectiveMinLot returns the minimum lot, never below one share.
func (s Security) EffectiveMinLot() int {
	if s.MinLot < 1 {
		return 1
	}
	return s.MinLot
}

// SecurityScore holds the per-security scores consumed by the strategies.
// Scores are in [0, 1]; volatilities are annualized; DistanceFromMA200 is a fraction
// ((price - MA200) / MA200). Zero values mean "unknown".
type SecurityScore struct {
	Symbol               string     `json:"symbol"`
	TotalScore           float64    `json:"total_score"`
	QualityScore         float64    `json:"quality_score"`
	TechnicalScore       float64    `json:"technical_score"`
	FundamentalScore     float64    `json:"fundamental_score"`
	Volatility           float64    `json:"volatility"`
	HistoricalVolatility float64    `json:"historical_volatility"`
	DistanceFromMA200    float64    `json:"distance_from_ma200"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// NeedsTechnicalEnrichment reports whether volatility history or MA distance are missing.
func (s SecurityScore) NeedsTechnicalEnrichment() bool {
	return s.HistoricalVolatility <= 0 || s.DistanceFromMA200 == 0
}

// DailyPrice represents one daily close.
type DailyPrice struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// Closes extracts close prices in the order given.
func Closes(prices []DailyPrice) []float64 {
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}
	return closes
}
