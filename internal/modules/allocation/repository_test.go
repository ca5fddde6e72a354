package allocation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepository_Targets(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.SetTargets(ctx, TargetTypeCountry, map[string]float64{"EU": 0.5, "US": 0.4}))
	require.NoError(t, repo.SetTargets(ctx, TargetTypeIndustry, map[string]float64{"Technology": 0.25}))

	countries, err := repo.GetCountryGroupTargets(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"EU": 0.5, "US": 0.4}, countries)

	// Replacing drops old keys
	require.NoError(t, repo.SetTargets(ctx, TargetTypeCountry, map[string]float64{"ASIA": 0.1}))
	countries, err = repo.GetCountryGroupTargets(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"ASIA": 0.1}, countries)

	industries, err := repo.GetIndustryGroupTargets(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Technology": 0.25}, industries)
}

func TestRepository_Groups(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	groups, err := repo.GetCountryGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	require.NoError(t, repo.SetGroup(ctx, TargetTypeCountry, "EU", []string{"Germany", "France"}))
	require.NoError(t, repo.SetGroup(ctx, TargetTypeIndustry, "Tech", []string{"Software"}))

	groups, err = repo.GetCountryGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"EU": {"France", "Germany"}}, groups)

	industryGroups, err := repo.GetIndustryGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"Tech": {"Software"}}, industryGroups)
}
