package services

import (
	"errors"
	"fmt"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Sizing validation errors.
var (
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInvalidExchangeRate = errors.New("exchange rate must be positive")
	ErrNegativeTarget      = errors.New("target value must not be negative")
)

// SizingError describes an invalid sizing input.
type SizingError struct {
	Field string
	Value float64
	Err   error
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *SizingError) Unwrap() error {
	return e.Err
}

// TradeSizingService converts monetary targets into lot-aligned share quantities.
//
// exchangeRate is the EUR value of one unit of the security's currency, so
// ValueEUR = ValueNative * exchangeRate and native = EUR / exchangeRate.
type TradeSizingService struct {
	log zerolog.Logger
}

// NewTradeSizingService creates a new trade sizing service
func NewTradeSizingService(log zerolog.Logger) *TradeSizingService {
	return &TradeSizingService{
		log: log.With().Str("service", "trade_sizing").Logger(),
	}
}

// CalculateBuyQuantity sizes a buy. The whole-share count is rounded up to the next multiple
// of minLot, so a positive target never yields less than one lot even if that overshoots.
func (s *TradeSizingService) CalculateBuyQuantity(
	targetValueEUR, price float64,
	minLot int,
	exchangeRate float64,
) (domain.SizedTrade, error) {
	shares, lot, err := rawShares(targetValueEUR, price, minLot, exchangeRate)
	if err != nil {
		return domain.SizedTrade{}, err
	}
	if targetValueEUR == 0 {
		return domain.SizedTrade{}, nil
	}

	quantity := shares
	if quantity < lot || quantity%lot != 0 {
		quantity = (quantity/lot + 1) * lot
	}

	trade := buildTrade(quantity, lot, price, exchangeRate)
	s.log.Debug().
		Float64("target_eur", targetValueEUR).
		Int("quantity", trade.Quantity).
		Float64("value_eur", trade.ValueEUR).
		Msg("Sized buy")
	return trade, nil
}

// CalculateSellQuantity sizes a sell. The whole-share count is rounded down to a multiple of
// minLot, with one lot as the floor for a positive target.
func (s *TradeSizingService) CalculateSellQuantity(
	targetValueEUR, price float64,
	minLot int,
	exchangeRate float64,
) (domain.SizedTrade, error) {
	shares, lot, err := rawShares(targetValueEUR, price, minLot, exchangeRate)
	if err != nil {
		return domain.SizedTrade{}, err
	}
	if targetValueEUR == 0 {
		return domain.SizedTrade{}, nil
	}

	quantity := (shares / lot) * lot
	if quantity < lot {
		quantity = lot
	}

	trade := buildTrade(quantity, lot, price, exchangeRate)
	s.log.Debug().
		Float64("target_eur", targetValueEUR).
		Int("quantity", trade.Quantity).
		Float64("value_eur", trade.ValueEUR).
		Msg("Sized sell")
	return trade, nil
}

// CapToHolding limits a sell to the lot-aligned part of the held quantity.
func (s *TradeSizingService) CapToHolding(
	trade domain.SizedTrade,
	held float64,
	price float64,
	minLot int,
	exchangeRate float64,
) domain.SizedTrade {
	lot := minLot
	if lot < 1 {
		lot = 1
	}

	maxQty := (int(held) / lot) * lot
	if trade.Quantity <= maxQty {
		return trade
	}
	if maxQty <= 0 {
		return domain.SizedTrade{}
	}
	return buildTrade(maxQty, lot, price, exchangeRate)
}

// rawShares validates the inputs and returns floor(target / rate / price) and the effective lot.
func rawShares(targetValueEUR, price float64, minLot int, exchangeRate float64) (int, int, error) {
	if price <= 0 {
		return 0, 0, &SizingError{Field: "price", Value: price, Err: ErrInvalidPrice}
	}
	if exchangeRate <= 0 {
		return 0, 0, &SizingError{Field: "exchange_rate", Value: exchangeRate, Err: ErrInvalidExchangeRate}
	}
	if targetValueEUR < 0 {
		return 0, 0, &SizingError{Field: "target_value", Value: targetValueEUR, Err: ErrNegativeTarget}
	}

	lot := minLot
	if lot < 1 {
		lot = 1
	}

	native := decimal.NewFromFloat(targetValueEUR).Div(decimal.NewFromFloat(exchangeRate))
	shares := native.Div(decimal.NewFromFloat(price)).Floor().IntPart()

	return int(shares), lot, nil
}

func buildTrade(quantity, lot int, price, exchangeRate float64) domain.SizedTrade {
	valueNative := decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromFloat(price))
	valueEUR := valueNative.Mul(decimal.NewFromFloat(exchangeRate))

	return domain.SizedTrade{
		Quantity:    quantity,
		ValueNative: valueNative.Round(2).InexactFloat64(),
		ValueEUR:    valueEUR.Round(2).InexactFloat64(),
		NumLots:     quantity / lot,
	}
}
