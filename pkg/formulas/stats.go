// Package formulas holds the numeric building blocks shared by scoring, enrichment and
// correlation code.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is used to annualize daily statistics.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns x sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts prices to simple returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]; a non-positive or NaN base yields 0.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev > 0 && !math.IsNaN(prev) && !math.IsNaN(cur) {
			returns[i-1] = (cur - prev) / prev
		}
	}
	return returns
}

// Correlation calculates the Pearson correlation coefficient between two datasets.
// Mismatched, short or constant series have no defined correlation and return ok=false.
func Correlation(x, y []float64) (float64, bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, false
	}
	if StdDev(x) == 0 || StdDev(y) == 0 {
		return 0, false
	}
	corr := stat.Correlation(x, y, nil)
	if math.IsNaN(corr) {
		return 0, false
	}
	return corr, true
}
