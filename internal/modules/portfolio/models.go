// Package portfolio models current holdings and cash, and stores them in SQLite.
package portfolio

import (
	"context"
	"time"
)

// Position represents a current holding. Monetary values suffixed EUR are converted;
// prices are in the position's native currency.
type Position struct {
	Symbol            string     `json:"symbol"`
	Quantity          float64    `json:"quantity"`
	AvgPrice          float64    `json:"avg_price"`
	CurrentPrice      float64    `json:"current_price"`
	Currency          string     `json:"currency"`
	CurrencyRate      float64    `json:"currency_rate"` // EUR value of one unit of Currency
	MarketValueEUR    float64    `json:"market_value_eur"`
	FirstBoughtAt     *time.Time `json:"first_bought_at,omitempty"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
}

// ProfitPct returns the unrealized profit fraction, or 0 when the cost basis is unknown.
func (p Position) ProfitPct() float64 {
	if p.AvgPrice <= 0 {
		return 0
	}
	return (p.CurrentPrice - p.AvgPrice) / p.AvgPrice
}

// DaysHeld returns whole days since first purchase, or ok=false when unknown.
func (p Position) DaysHeld(now time.Time) (int, bool) {
	if p.FirstBoughtAt == nil {
		return 0, false
	}
	return int(now.Sub(*p.FirstBoughtAt).Hours() / 24), true
}

// PositionSource provides current holdings.
type PositionSource interface {
	GetAll(ctx context.Context) ([]Position, error)
	GetTotalValue(ctx context.Context) (float64, error)
}

// CashSource provides cash available for new purchases, in EUR.
type CashSource interface {
	GetAvailableCashEUR(ctx context.Context) (float64, error)
}
