package di

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/server"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:          t.TempDir(),
		LogLevel:         "info",
		Port:             0,
		PlanningSchedule: "0 0 */4 * * *",
		FetchTimeout:     5 * time.Second,
	}
}

func TestWire(t *testing.T) {
	tests := []struct {
		name     string
		priceAPI string
		wantJobs []string
	}{
		{name: "without price api", wantJobs: []string{"planning_cycle", "cache_purge", "lock_maintenance"}},
		{name: "with price api", priceAPI: "http://localhost:9999", wantJobs: []string{"planning_cycle", "cache_purge", "lock_maintenance", "price_sync"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.PriceAPIURL = tt.priceAPI

			container, err := Wire(cfg, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(container.Close)

			assert.NotNil(t, container.PortfolioDB)
			assert.NotNil(t, container.CacheDB)
			assert.NotNil(t, container.RecommendationService)
			assert.NotNil(t, container.Scheduler)
			assert.Len(t, container.Modules, 2)
			assert.Equal(t, tt.priceAPI != "", container.HistoricalSync != nil)

			names := make([]string, 0, len(container.Jobs))
			for _, sj := range container.Jobs {
				names = append(names, sj.Job.Name())
			}
			assert.Equal(t, tt.wantJobs, names)
		})
	}
}

func TestWire_InvalidPlannerConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.PlannerConfigPath = filepath.Join(cfg.DataDir, "planner.toml")
	require.NoError(t, os.WriteFile(cfg.PlannerConfigPath, []byte("name = \"\"\n"), 0o644))

	_, err := Wire(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load planner config")
}

func TestWire_ServesRoutes(t *testing.T) {
	cfg := testConfig(t)
	cfg.PlannerConfigPath = filepath.Join(cfg.DataDir, "planner.toml")
	require.NoError(t, os.WriteFile(cfg.PlannerConfigPath, []byte("name = \"aggressive\"\nmax_recommendations = 3\n"), 0o644))

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	srv := server.New(server.Config{
		Log:      zerolog.Nop(),
		DevMode:  true,
		Gatherer: container.Metrics,
		Modules:  container.Modules,
		Checks:   container.HealthChecks(),
	})

	tests := []struct {
		path  string
		check func(t *testing.T, body string)
	}{
		{path: "/health", check: func(t *testing.T, body string) {
			assert.Equal(t, "healthy", gjson.Get(body, "status").String())
		}},
		{path: "/api/planning/config", check: func(t *testing.T, body string) {
			assert.Equal(t, "aggressive", gjson.Get(body, "name").String())
			assert.Equal(t, int64(3), gjson.Get(body, "max_recommendations").Int())
		}},
		{path: "/metrics", check: func(t *testing.T, body string) {
			assert.Contains(t, body, "go_goroutines")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			tt.check(t, rec.Body.String())
		})
	}
}
