package portfolio

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

func newTestRepository(t *testing.T) *PositionRepository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewPositionRepository(db.Conn(), zerolog.Nop())
}

func TestPositionRepository_UpsertAndGetAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	bought := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, Position{
		Symbol:         "MSFT",
		Quantity:       10,
		AvgPrice:       300,
		CurrentPrice:   400,
		Currency:       "USD",
		CurrencyRate:   0.9,
		MarketValueEUR: 3600,
		FirstBoughtAt:  &bought,
	}))
	require.NoError(t, repo.Upsert(ctx, Position{
		Symbol:         "ASML",
		Quantity:       2,
		AvgPrice:       600,
		CurrentPrice:   650,
		Currency:       "EUR",
		MarketValueEUR: 1300,
	}))
	require.NoError(t, repo.Upsert(ctx, Position{Symbol: "SOLD", Quantity: 0, MarketValueEUR: 0}))

	positions, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 2, "zero-quantity positions are excluded")

	assert.Equal(t, "ASML", positions[0].Symbol)
	assert.Equal(t, 1.0, positions[0].CurrencyRate, "missing rate defaults to 1.0")
	assert.Nil(t, positions[0].FirstBoughtAt)

	assert.Equal(t, "MSFT", positions[1].Symbol)
	require.NotNil(t, positions[1].FirstBoughtAt)
	assert.True(t, bought.Equal(*positions[1].FirstBoughtAt))
}

func TestPositionRepository_TotalValueIncludesCash(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Upsert(ctx, Position{Symbol: "A", Quantity: 1, MarketValueEUR: 1000}))
	require.NoError(t, repo.SetCashBalance(ctx, "EUR", 500, 1.0))
	require.NoError(t, repo.SetCashBalance(ctx, "USD", 100, 0.9))

	cash, err := repo.GetAvailableCashEUR(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 590.0, cash, 1e-9)

	total, err := repo.GetTotalValue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1590.0, total, 1e-9)
}

func TestPositionRepository_EmptyPortfolio(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	positions, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)

	total, err := repo.GetTotalValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestPosition_Helpers(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bought := now.AddDate(0, 0, -100)

	pos := Position{AvgPrice: 50, CurrentPrice: 60, FirstBoughtAt: &bought}
	assert.InDelta(t, 0.2, pos.ProfitPct(), 1e-9)

	days, ok := pos.DaysHeld(now)
	assert.True(t, ok)
	assert.Equal(t, 100, days)

	_, ok = Position{}.DaysHeld(now)
	assert.False(t, ok)
	assert.Equal(t, 0.0, Position{CurrentPrice: 10}.ProfitPct())
}
