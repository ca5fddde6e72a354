// Package handlers provides HTTP handlers for planning endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/planning"
	"github.com/aristath/rebalancer/internal/modules/planning/domain"
)

// Planner is the subset of planning.RecommendationService the handlers use.
type Planner interface {
	Run(ctx context.Context) (*planning.Result, error)
	Latest() (*planning.Result, bool)
	Config() *domain.PlannerConfiguration
}

// Handler serves recommendations, the strategic plan and the active configuration.
type Handler struct {
	planner Planner
	log     zerolog.Logger
}

// NewHandler creates a planning handler.
func NewHandler(planner Planner, log zerolog.Logger) *Handler {
	return &Handler{
		planner: planner,
		log:     log.With().Str("handler", "planning").Logger(),
	}
}

// RegisterRoutes registers all planning routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/planning", func(r chi.Router) {
		r.Get("/recommendations", h.HandleGetRecommendations)
		r.Post("/recommendations", h.HandleRunPlanning)
		r.Get("/plan", h.HandleGetPlan)
		r.Get("/config", h.HandleGetConfig)
	})
}

// HandleGetRecommendations returns the latest recommendations. A cycle runs first when none
// exists yet or refresh=true is given. limit truncates the list.
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	result, ok := h.result(w, r)
	if !ok {
		return
	}

	recs := result.Recommendations
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(recs) {
			recs = recs[:l]
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"sequence_hash":   result.Sequence.SequenceHash,
		"generated_at":    result.GeneratedAt,
	})
}

// HandleRunPlanning runs a cycle immediately and returns its full result.
func (h *Handler) HandleRunPlanning(w http.ResponseWriter, r *http.Request) {
	result, err := h.planner.Run(r.Context())
	if err != nil {
		h.writePlanningError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetPlan returns the ranked strategic plan of the latest cycle.
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	result, ok := h.result(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan":         result.Plan,
		"goal_keys":    result.Plan.GoalKeys(),
		"generated_at": result.GeneratedAt,
	})
}

// HandleGetConfig returns the active planner configuration.
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.planner.Config())
}

func (h *Handler) result(w http.ResponseWriter, r *http.Request) (*planning.Result, bool) {
	if r.URL.Query().Get("refresh") != "true" {
		if latest, ok := h.planner.Latest(); ok {
			return latest, true
		}
	}

	result, err := h.planner.Run(r.Context())
	if err != nil {
		h.writePlanningError(w, err)
		return nil, false
	}
	return result, true
}

func (h *Handler) writePlanningError(w http.ResponseWriter, err error) {
	if errors.Is(err, planning.ErrPlanningInProgress) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Planning failed")
	h.writeError(w, http.StatusInternalServerError, "Failed to create plan")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
