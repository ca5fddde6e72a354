package scorers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) *time.Time {
	t := fixedNow.AddDate(0, 0, -days)
	return &t
}

func TestCalculateUnderperformanceScore(t *testing.T) {
	tests := []struct {
		name          string
		currentPrice  float64
		avgPrice      float64
		daysHeld      int
		expectedScore float64
	}{
		{"loss beyond max loss blocks", 70, 100, 400, 0.0},
		{"loss beyond max loss blocks on short hold", 70, 100, 10, 0.0},
		{"significant annual loss", 90, 100, 365, 0.9},
		{"small loss", 98, 100, 365, 0.7},
		{"below target", 105, 100, 365, 0.5},
		{"within target band", 110, 100, 365, 0.1},
		{"top of target band", 115, 100, 365, 0.1},
		{"above target", 120, 100, 365, 0.3},
		{"short hold uses simple return", 110, 100, 60, 0.1},
		{"no cost basis", 110, 0, 365, 0.5},
		{"no holding period uses simple return", 110, 100, 0, 0.1},
		{"catastrophic loss on day zero", 50, 100, 0, 0.0},
		{"catastrophic loss on day one", 50, 100, 1, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := CalculateUnderperformanceScore(tt.currentPrice, tt.avgPrice, tt.daysHeld, -0.20)
			assert.Equal(t, tt.expectedScore, score)
		})
	}
}

func TestCalculateUnderperformanceScore_ReturnsProfit(t *testing.T) {
	score, profit := CalculateUnderperformanceScore(120, 100, 730, -0.20)
	assert.InDelta(t, 0.2, profit, 1e-12)
	// CAGR over two years is ~9.5%
	assert.Equal(t, 0.1, score)
}

func TestCalculateTimeHeldScore(t *testing.T) {
	tests := []struct {
		name          string
		firstBoughtAt *time.Time
		expectedScore float64
		expectedDays  int
	}{
		{"unknown purchase date", nil, 0.6, 365},
		{"below minimum hold", daysAgo(30), 0.0, 30},
		{"three to six months", daysAgo(100), 0.3, 100},
		{"six to twelve months", daysAgo(200), 0.6, 200},
		{"one to two years", daysAgo(400), 0.8, 400},
		{"over two years", daysAgo(800), 1.0, 800},
		{"exactly 730 days", daysAgo(730), 1.0, 730},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, days := CalculateTimeHeldScore(tt.firstBoughtAt, 90, fixedNow)
			assert.Equal(t, tt.expectedScore, score)
			assert.Equal(t, tt.expectedDays, days)
		})
	}
}

func TestCalculatePortfolioBalanceScore(t *testing.T) {
	countryTargets := map[string]float64{"US": 0.40}
	industryTargets := map[string]float64{"Technology": 0.20}

	tests := []struct {
		name                string
		positionValue       float64
		totalValue          float64
		country             string
		industry            string
		countryAllocations  map[string]float64
		industryAllocations map[string]float64
		expected            float64
	}{
		{"no portfolio value", 100, 0, "US", "", nil, nil, 0.5},
		{"highly concentrated", 1200, 10000, "US", "", nil, nil, 1.0},
		{"concentrated band", 850, 10000, "US", "", nil, nil, 0.85},
		{"bucket saturated excess", 100, 10000, "US", "", map[string]float64{"US": 0.57}, nil, 0.7},
		{"bucket significant excess", 100, 10000, "US", "", map[string]float64{"US": 0.465}, nil, 0.6},
		{"bucket small excess", 100, 10000, "US", "", map[string]float64{"US": 0.415}, nil, 0.4},
		{"industry excess wins", 100, 10000, "US", "Technology",
			map[string]float64{"US": 0.30}, map[string]float64{"Technology": 0.2475}, 0.55},
		{"unmapped country uses fallback target", 100, 10000, "Japan", "",
			map[string]float64{"Japan": 0.345}, nil, 0.4},
		{"unmapped industry uses fallback target", 100, 10000, "", "Energy",
			nil, map[string]float64{"Energy": 0.20}, 0.7},
		{"underweight", 100, 10000, "US", "Technology",
			map[string]float64{"US": 0.30}, map[string]float64{"Technology": 0.10}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := CalculatePortfolioBalanceScore(
				tt.positionValue, tt.totalValue, tt.country, tt.industry,
				tt.countryAllocations, tt.industryAllocations, countryTargets, industryTargets,
			)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestCalculateInstabilityScore(t *testing.T) {
	tests := []struct {
		name       string
		profitPct  float64
		daysHeld   int
		currentVol float64
		histVol    float64
		distance   float64
		expected   float64
	}{
		{"too early without history", 0, 10, 0, 0, 0, 0.32},
		{"everything hot", 0.6, 365, 0.5, 0.2, 0.35, 1.0},
		{"moderate signals", 0.35, 365, 0.32, 0.2, 0.25, 0.4*0.7 + 0.3*0.7 + 0.3*0.7},
		{"warm signals", 0.25, 365, 0.26, 0.2, 0.15, 0.4},
		{"calm", 0.05, 365, 0.2, 0.2, 0.0, 0.1},
		{"extreme profit floor", 1.5, 3650, 0.2, 0.2, 0.0, 0.2},
		{"high profit floor", 0.8, 3650, 0.2, 0.2, 0.0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := CalculateInstabilityScore(tt.profitPct, tt.daysHeld, tt.currentVol, tt.histVol, tt.distance)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestSellScorer_Eligibility(t *testing.T) {
	scorer := NewSellScorer(DefaultSellScorerConfig()).WithClock(func() time.Time { return fixedNow })

	base := SellScoreInput{
		Symbol:              "ACME",
		Quantity:            100,
		AvgPrice:            100,
		CurrentPrice:        110,
		MinLot:              1,
		AllowSell:           true,
		FirstBoughtAt:       daysAgo(800),
		TotalPortfolioValue: 100000,
	}

	tests := []struct {
		name   string
		mutate func(in *SellScoreInput)
		reason string
	}{
		{"sell not allowed", func(in *SellScoreInput) { in.AllowSell = false }, "allow_sell=false"},
		{"loss too large", func(in *SellScoreInput) { in.CurrentPrice = 70 }, "Loss exceeds threshold"},
		{"recent transaction", func(in *SellScoreInput) { in.LastTransactionAt = daysAgo(30) }, "Held less than minimum days"},
		{"cooldown", func(in *SellScoreInput) { in.LastTransactionAt = daysAgo(120) }, "Sell cooldown period active"},
		{"too small to sell", func(in *SellScoreInput) { in.Quantity = 3; in.CurrentPrice = 10; in.AvgPrice = 9 }, "Below minimum sell value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			score := scorer.CalculateSellScore(in)
			assert.False(t, score.Eligible)
			assert.Equal(t, tt.reason, score.BlockReason)
			assert.Zero(t, score.SuggestedSellQuantity)
		})
	}
}

func TestSellScorer_CalculateSellScore(t *testing.T) {
	scorer := NewSellScorer(DefaultSellScorerConfig()).WithClock(func() time.Time { return fixedNow })

	score := scorer.CalculateSellScore(SellScoreInput{
		Symbol:              "ACME",
		Quantity:            100,
		AvgPrice:            100,
		CurrentPrice:        130,
		MinLot:              1,
		AllowSell:           true,
		FirstBoughtAt:       daysAgo(800),
		LastTransactionAt:   daysAgo(400),
		TotalPortfolioValue: 100000,
	})

	require.True(t, score.Eligible)
	assert.Equal(t, 0.1, score.UnderperformanceScore)
	assert.Equal(t, 1.0, score.TimeHeldScore)
	assert.Equal(t, 1.0, score.PortfolioBalanceScore)
	assert.Equal(t, 0.16, score.InstabilityScore)
	assert.Equal(t, 0.492, score.TotalScore)
	assert.Equal(t, 29, score.SuggestedSellQuantity)
	assert.Equal(t, 0.29, score.SuggestedSellPct)
	assert.Equal(t, 3770.0, score.SuggestedSellValue)
	assert.Equal(t, 0.3, score.ProfitPct)
	assert.Equal(t, 800, score.DaysHeld)
}

func TestDetermineSellQuantity(t *testing.T) {
	tests := []struct {
		name        string
		score       float64
		quantity    float64
		minLot      float64
		price       float64
		expectedQty float64
	}{
		{"minimum pct", 0.0, 100, 1, 10, 10},
		{"maximum pct", 1.0, 100, 1, 10, 50},
		{"lot aligned", 0.5, 100, 7, 10, 28},
		{"keeps one lot", 1.0, 2, 1, 1000, 1},
		{"below min sell value", 0.5, 100, 1, 1, 0},
		{"empty position", 0.5, 0, 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, _ := determineSellQuantity(tt.score, tt.quantity, tt.minLot, tt.price, 100)
			assert.Equal(t, tt.expectedQty, qty)
		})
	}
}

func TestSellScorer_CheckEligibility(t *testing.T) {
	scorer := NewSellScorer(DefaultSellScorerConfig()).WithClock(func() time.Time { return fixedNow })

	ok, reason := scorer.CheckEligibility(SellScoreInput{AllowSell: true, AvgPrice: 100, CurrentPrice: 90})
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = scorer.CheckEligibility(SellScoreInput{AllowSell: true, AvgPrice: 100, CurrentPrice: 50})
	assert.False(t, ok)
	assert.Equal(t, "Loss exceeds threshold", reason)
}
