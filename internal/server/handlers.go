package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.QuickCheck(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", check.Name()).Msg("Health check failed")
			checks[check.Name()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[check.Name()] = "ok"
	}

	response := map[string]interface{}{
		"status":  "healthy",
		"service": "rebalancer",
		"checks":  checks,
	}
	if status != http.StatusOK {
		response["status"] = "degraded"
	}

	s.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
