package testing

import (
	"time"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/universe"
)

// NewSecurity returns an active, tradable EUR security.
func NewSecurity(symbol, country, industry string, price float64) universe.Security {
	return universe.Security{
		Symbol:       symbol,
		Name:         symbol + " Corp",
		Country:      country,
		Industry:     industry,
		Currency:     "EUR",
		CurrencyRate: 1.0,
		Price:        price,
		MinLot:       1,
		Active:       true,
		AllowBuy:     true,
		AllowSell:    true,
	}
}

// NewPosition returns an EUR position whose market value is quantity * currentPrice.
func NewPosition(symbol string, quantity, avgPrice, currentPrice float64) portfolio.Position {
	return portfolio.Position{
		Symbol:         symbol,
		Quantity:       quantity,
		AvgPrice:       avgPrice,
		CurrentPrice:   currentPrice,
		Currency:       "EUR",
		CurrencyRate:   1.0,
		MarketValueEUR: quantity * currentPrice,
	}
}

// HeldSince sets the purchase and last transaction dates of a position.
func HeldSince(p portfolio.Position, firstBought, lastTransaction time.Time) portfolio.Position {
	p.FirstBoughtAt = &firstBought
	p.LastTransactionAt = &lastTransaction
	return p
}

// PriceSeries compounds daily returns from a start price into ascending daily closes.
func PriceSeries(start float64, returns []float64) []universe.DailyPrice {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]universe.DailyPrice, 0, len(returns)+1)
	price := start
	prices = append(prices, universe.DailyPrice{Date: day.Format("2006-01-02"), Close: price})
	for _, r := range returns {
		day = day.AddDate(0, 0, 1)
		price *= 1 + r
		prices = append(prices, universe.DailyPrice{Date: day.Format("2006-01-02"), Close: price})
	}
	return prices
}

// AlternatingReturns returns n returns cycling through pattern.
func AlternatingReturns(n int, pattern ...float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}
