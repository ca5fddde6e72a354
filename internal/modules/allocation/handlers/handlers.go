// Package handlers provides HTTP handlers for portfolio allocation management.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/allocation"
)

// StatusProvider reports current allocation against targets.
type StatusProvider interface {
	AllocationStatus(ctx context.Context) ([]allocation.AllocationStatus, error)
}

// TargetStore reads and replaces allocation targets.
type TargetStore interface {
	allocation.TargetSource
	SetTargets(ctx context.Context, targetType string, targets map[string]float64) error
}

// Handler handles allocation HTTP requests
type Handler struct {
	status  StatusProvider
	targets TargetStore
	log     zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(status StatusProvider, targets TargetStore, log zerolog.Logger) *Handler {
	return &Handler{
		status:  status,
		targets: targets,
		log:     log.With().Str("handler", "allocation").Logger(),
	}
}

// RegisterRoutes registers allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocation", func(r chi.Router) {
		r.Get("/status", h.HandleGetStatus)
		r.Get("/targets", h.HandleGetTargets)
		r.Put("/targets/{type}", h.HandleSetTargets)
	})
}

// HandleGetStatus returns every bucket with target, current weight and deviation.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.status.AllocationStatus(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute allocation status")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var country, industry []allocation.AllocationStatus
	for _, s := range statuses {
		if s.Category == allocation.CategoryCountry {
			country = append(country, s)
		} else {
			industry = append(industry, s)
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"country":  country,
		"industry": industry,
	})
}

// HandleGetTargets returns allocation targets for country and industry groups
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	countryTargets, err := h.targets.GetCountryGroupTargets(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	industryTargets, err := h.targets.GetIndustryGroupTargets(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"country":  countryTargets,
		"industry": industryTargets,
	})
}

// HandleSetTargets replaces the targets of one category.
// Body: {"targets": {"US": 0.5, "EU": 0.3}}
func (h *Handler) HandleSetTargets(w http.ResponseWriter, r *http.Request) {
	targetType := chi.URLParam(r, "type")
	if targetType != allocation.TargetTypeCountry && targetType != allocation.TargetTypeIndustry {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown target type: %s", targetType))
		return
	}

	var req struct {
		Targets map[string]float64 `json:"targets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for name, pct := range req.Targets {
		if name == "" || math.IsNaN(pct) || math.IsInf(pct, 0) {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid target for %q", name))
			return
		}
	}

	if err := h.targets.SetTargets(r.Context(), targetType, req.Targets); err != nil {
		h.log.Error().Err(err).Str("type", targetType).Msg("Failed to save targets")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"type":    targetType,
		"targets": req.Targets,
	})
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
