package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Empty(t, CalculateReturns([]float64{100}))
	assert.Equal(t, []float64{0}, CalculateReturns([]float64{0, 10}))
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	corr, ok := Correlation(x, []float64{2, 4, 6, 8, 10})
	require.True(t, ok)
	assert.InDelta(t, 1.0, corr, 1e-9)

	corr, ok = Correlation(x, []float64{5, 4, 3, 2, 1})
	require.True(t, ok)
	assert.InDelta(t, -1.0, corr, 1e-9)

	_, ok = Correlation(x, []float64{3, 3, 3, 3, 3})
	assert.False(t, ok, "constant series has no correlation")

	_, ok = Correlation(x, []float64{1, 2})
	assert.False(t, ok, "length mismatch")
}

func TestCAGR(t *testing.T) {
	t.Run("two years doubling", func(t *testing.T) {
		cagr, ok := CAGR(100, 121, 730)
		require.True(t, ok)
		assert.InDelta(t, 0.10, cagr, 1e-9)
	})

	t.Run("short period uses simple return", func(t *testing.T) {
		cagr, ok := CAGR(100, 105, 30)
		require.True(t, ok)
		assert.InDelta(t, 0.05, cagr, 1e-9)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, ok := CAGR(0, 105, 30)
		assert.False(t, ok)
		_, ok = CAGR(100, 105, 0)
		assert.False(t, ok)
	})
}

func TestAnnualizeReturn(t *testing.T) {
	assert.InDelta(t, 0.21, AnnualizeReturn(0.21, 365), 1e-9)
	assert.InDelta(t, 0.10, AnnualizeReturn(0.21, 730), 1e-9)
	assert.Equal(t, 0.5, AnnualizeReturn(0.5, 0))
}

func TestCalculateSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}

	sma, ok := CalculateSMA(closes, 3)
	require.True(t, ok)
	assert.InDelta(t, 5.0, sma, 1e-9)

	sma, ok = CalculateSMA(closes, 10)
	require.True(t, ok)
	assert.InDelta(t, 3.5, sma, 1e-9, "falls back to mean of available data")

	_, ok = CalculateSMA(nil, 3)
	assert.False(t, ok)
}

func TestDistanceFromMA(t *testing.T) {
	closes := []float64{100, 100, 100, 130}

	dist, ok := DistanceFromMA(closes, 4)
	require.True(t, ok)
	// MA = 107.5, (130 - 107.5) / 107.5
	assert.InDelta(t, 22.5/107.5, dist, 1e-9)
}

func TestRecentVolatility(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 100
	}
	assert.InDelta(t, 0.0, RecentVolatility(flat, RecentVolatilityWindow), 1e-9)

	zigzag := make([]float64, 40)
	for i := range zigzag {
		zigzag[i] = 100
		if i%2 == 1 {
			zigzag[i] = 102
		}
	}
	vol := RecentVolatility(zigzag, RecentVolatilityWindow)
	assert.Greater(t, vol, 0.0)
	assert.False(t, math.IsNaN(vol))
}
