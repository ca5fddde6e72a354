package formulas

import "math"

// MinYearsForCAGR is the holding period below which returns are not annualized.
const MinYearsForCAGR = 0.25

// CAGR calculates the compound annual growth rate between two values over a number of days.
//
//	CAGR = (end / start)^(365 / days) - 1
//
// Periods shorter than three months return the simple return instead. Non-positive inputs
// return ok=false.
func CAGR(start, end float64, days int) (float64, bool) {
	if start <= 0 || end <= 0 || days <= 0 {
		return 0, false
	}

	years := float64(days) / 365.0
	if years < MinYearsForCAGR {
		return end/start - 1, true
	}
	return math.Pow(end/start, 1/years) - 1, true
}

// AnnualizeReturn converts a cumulative profit fraction into an annual rate.
// Unlike CAGR it annualizes every positive period, which is what the gain-rate heuristics use.
func AnnualizeReturn(profitPct float64, days int) float64 {
	if days <= 0 || profitPct <= -1 {
		return profitPct
	}
	years := float64(days) / 365.0
	return math.Pow(1+profitPct, 1/years) - 1
}
