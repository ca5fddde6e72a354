package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	name string
	err  error
}

func (c stubCheck) Name() string                         { return c.name }
func (c stubCheck) QuickCheck(ctx context.Context) error { return c.err }

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     []HealthChecker
		wantStatus int
		wantState  string
	}{
		{name: "no checks", wantStatus: http.StatusOK, wantState: "healthy"},
		{name: "all ok", checks: []HealthChecker{stubCheck{name: "portfolio"}}, wantStatus: http.StatusOK, wantState: "healthy"},
		{
			name:       "failing db",
			checks:     []HealthChecker{stubCheck{name: "portfolio"}, stubCheck{name: "cache", err: errors.New("corrupt")}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{Log: zerolog.Nop(), Port: 0, DevMode: true, Checks: tt.checks})
			rec := get(t, s, "/health")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body["status"])
		})
	}
}

func TestModulesMountedUnderAPI(t *testing.T) {
	s := New(Config{Log: zerolog.Nop(), DevMode: true, Modules: []RouteRegistrar{pingModule{}}})

	rec := get(t, s, "/api/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/ping").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "rebalancer_test_total", Help: "test"}).Inc()

	s := New(Config{Log: zerolog.Nop(), DevMode: true, Gatherer: reg})
	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rebalancer_test_total 1")
}
