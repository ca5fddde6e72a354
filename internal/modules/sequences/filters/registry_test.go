package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
)

type failingFilter struct{ name string }

func (f *failingFilter) Name() string { return f.name }

func (f *failingFilter) Filter(context.Context, []domain.ActionSequence, map[string]interface{}) ([]domain.ActionSequence, error) {
	return nil, errors.New("boom")
}

func TestFilterRegistry_Get(t *testing.T) {
	registry := NewPopulatedFilterRegistry(zerolog.Nop(), nil)

	f, err := registry.Get(domain.FilterDedupe)
	require.NoError(t, err)
	assert.Equal(t, domain.FilterDedupe, f.Name())

	f, err = registry.Get(domain.FilterCorrelationAware)
	require.NoError(t, err)
	assert.Equal(t, domain.FilterCorrelationAware, f.Name())

	_, err = registry.Get("diversity")
	assert.EqualError(t, err, "filter not found: diversity")
}

func TestFilterRegistry_ApplyFilters(t *testing.T) {
	provider := &mockCorrelations{correlations: map[string]float64{"AAPL:MSFT": 0.95}}
	registry := NewPopulatedFilterRegistry(zerolog.Nop(), provider)
	sequences := []domain.ActionSequence{
		buys("a", "AAPL"),
		buys("b", "AAPL", "MSFT"),
		buys("a", "AAPL"),
		buys("c", "GOOGL"),
	}

	t.Run("all enabled", func(t *testing.T) {
		result := registry.ApplyFilters(context.Background(), sequences, domain.NewDefaultConfiguration())
		assert.Equal(t, []string{"a", "c"}, hashes(result))
	})

	t.Run("correlation disabled", func(t *testing.T) {
		cfg := domain.NewDefaultConfiguration()
		cfg.EnableCorrelationAwareFilter = false

		result := registry.ApplyFilters(context.Background(), sequences, cfg)
		assert.Equal(t, []string{"a", "b", "c"}, hashes(result))
	})

	t.Run("failing filter is skipped", func(t *testing.T) {
		registry := NewPopulatedFilterRegistry(zerolog.Nop(), provider)
		registry.Register(&failingFilter{name: domain.FilterCorrelationAware})

		result := registry.ApplyFilters(context.Background(), sequences, domain.NewDefaultConfiguration())
		assert.Equal(t, []string{"a", "b", "c"}, hashes(result))
	})
}
