package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// DefaultMAPeriod is the moving average used for valuation stretch.
const DefaultMAPeriod = 200

// RecentVolatilityWindow is the number of daily returns treated as "current" volatility.
const RecentVolatilityWindow = 20

// CalculateSMA returns the latest simple moving average over length closes.
// With fewer closes than length the plain mean of what is available is used.
func CalculateSMA(closes []float64, length int) (float64, bool) {
	if len(closes) == 0 || length <= 0 {
		return 0, false
	}
	if len(closes) < length {
		return Mean(closes), true
	}

	sma := talib.Sma(closes, length)
	last := sma[len(sma)-1]
	if math.IsNaN(last) || last <= 0 {
		return Mean(closes[len(closes)-length:]), true
	}
	return last, true
}

// DistanceFromMA returns (price - MA) / MA for the last close against the moving average.
func DistanceFromMA(closes []float64, length int) (float64, bool) {
	if len(closes) == 0 {
		return 0, false
	}
	ma, ok := CalculateSMA(closes, length)
	if !ok || ma <= 0 {
		return 0, false
	}
	return (closes[len(closes)-1] - ma) / ma, true
}

// RecentVolatility returns the annualized volatility of the last window daily returns,
// computed with talib's rolling standard deviation.
func RecentVolatility(closes []float64, window int) float64 {
	returns := CalculateReturns(closes)
	if window < 2 || len(returns) < window {
		return AnnualizedVolatility(returns)
	}

	// talib uses the population deviation; rescale to sample deviation for consistency
	// with AnnualizedVolatility.
	rolling := talib.StdDev(returns, window, 1.0)
	last := rolling[len(rolling)-1]
	n := float64(window)
	return last * math.Sqrt(n/(n-1)) * math.Sqrt(TradingDaysPerYear)
}
