package universe

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSecurityRepository_GetAllActive(t *testing.T) {
	ctx := context.Background()
	repo := NewSecurityRepository(newTestDB(t).Conn(), zerolog.Nop())

	require.NoError(t, repo.Upsert(ctx, Security{
		Symbol: "SAP", Name: "SAP SE", Country: "Germany", Industry: "Technology",
		Currency: "EUR", Price: 180, MinLot: 1, Active: true, AllowBuy: true, AllowSell: true,
	}))
	require.NoError(t, repo.Upsert(ctx, Security{
		Symbol: "9988", Name: "Alibaba", Country: "China", Industry: "Consumer",
		Currency: "HKD", CurrencyRate: 0.12, Price: 80, MinLot: 100, Active: true, AllowBuy: true,
	}))
	require.NoError(t, repo.Upsert(ctx, Security{Symbol: "OLD", Name: "Delisted", Active: false}))

	securities, err := repo.GetAllActive(ctx)
	require.NoError(t, err)
	require.Len(t, securities, 2)

	assert.Equal(t, "9988", securities[0].Symbol)
	assert.Equal(t, 100, securities[0].MinLot)
	assert.False(t, securities[0].AllowSell)
	assert.InDelta(t, 9.6, securities[0].PriceEUR(), 1e-9)

	assert.Equal(t, "SAP", securities[1].Symbol)
	assert.True(t, securities[1].AllowBuy)
}

func TestSecurityRepository_GetBySymbol(t *testing.T) {
	ctx := context.Background()
	repo := NewSecurityRepository(newTestDB(t).Conn(), zerolog.Nop())

	missing, err := repo.GetBySymbol(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Upsert(ctx, Security{Symbol: "SAP", Name: "SAP SE", MinLot: 0, Active: true}))
	sec, err := repo.GetBySymbol(ctx, "SAP")
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, 1, sec.MinLot, "min lot is stored as at least one share")
	assert.Equal(t, 1.0, sec.CurrencyRate)
}

func TestScoreRepository_GetScores(t *testing.T) {
	ctx := context.Background()
	repo := NewScoreRepository(newTestDB(t).Conn(), zerolog.Nop())

	require.NoError(t, repo.Upsert(ctx, SecurityScore{Symbol: "A", TotalScore: 0.8, QualityScore: 0.7, Volatility: 0.2}))
	require.NoError(t, repo.Upsert(ctx, SecurityScore{Symbol: "B", TotalScore: 0.4}))

	scores, err := repo.GetScores(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.8, scores["A"].TotalScore)
	assert.Equal(t, 0.7, scores["A"].QualityScore)
	assert.NotNil(t, scores["A"].UpdatedAt)
	_, ok := scores["C"]
	assert.False(t, ok)

	empty, err := repo.GetScores(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHistoryDB_Fetch(t *testing.T) {
	ctx := context.Background()
	history := NewHistoryDB(newTestDB(t).Conn(), zerolog.Nop())
	history.now = func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, history.InsertPrices(ctx, "A", []DailyPrice{
		{Date: "2020-01-01", Close: 1},
		{Date: "2025-06-26", Close: 10},
		{Date: "2025-06-27", Close: 11},
		{Date: "2025-06-30", Close: 12},
	}))
	require.NoError(t, history.InsertPrices(ctx, "B", []DailyPrice{
		{Date: "2025-06-27", Close: 20},
	}))

	series, err := history.Fetch(ctx, []string{"A", "B", "C"}, 2)
	require.NoError(t, err)

	require.Len(t, series["A"], 3, "trimmed to lookback+1 closes")
	assert.Equal(t, []float64{10, 11, 12}, Closes(series["A"]))
	assert.Len(t, series["B"], 1)
	_, ok := series["C"]
	assert.False(t, ok)

	_, err = history.Fetch(ctx, []string{"A"}, 0)
	assert.Error(t, err)
}

func TestSecurityScore_NeedsTechnicalEnrichment(t *testing.T) {
	assert.True(t, SecurityScore{}.NeedsTechnicalEnrichment())
	assert.True(t, SecurityScore{HistoricalVolatility: 0.2}.NeedsTechnicalEnrichment())
	assert.False(t, SecurityScore{HistoricalVolatility: 0.2, DistanceFromMA200: -0.05}.NeedsTechnicalEnrichment())
}
