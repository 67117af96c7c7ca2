package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/internal/infrastructure/database/repository"
	"complyguard-lab/pkg/logger"
)

// GapsHandler handles compliance gap lifecycle endpoints
type GapsHandler struct {
	engine *services.AssessmentEngine
	repos  *repository.Repositories
	logger *logger.Logger
}

// NewGapsHandler creates a new GapsHandler
func NewGapsHandler(engine *services.AssessmentEngine, repos *repository.Repositories, log *logger.Logger) *GapsHandler {
	return &GapsHandler{
		engine: engine,
		repos:  repos,
		logger: log.WithComponent("gaps"),
	}
}

// Analyze handles POST /api/v1/gaps/analyze. Runs a standalone gap
// analysis; nothing is persisted.
func (h *GapsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FrameworkIDs []string                          `json:"framework_ids"`
		Statuses     map[string][]models.ControlStatus `json:"statuses"`
		AsOf         *time.Time                        `json:"as_of,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	gaps, err := h.engine.AnalyzeGaps(req.FrameworkIDs, req.Statuses, asOf)
	if err != nil {
		var unknownFw *models.UnknownFrameworkError
		var unknownCtl *models.UnknownControlError
		if errors.As(err, &unknownFw) || errors.As(err, &unknownCtl) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("gap analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  gaps,
		"total": len(gaps),
		"as_of": asOf,
	})
}

// List handles GET /api/v1/gaps
func (h *GapsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	limit, offset := pagination(r, 100)
	filter := repository.GapFilter{
		FrameworkID: r.URL.Query().Get("framework"),
		Severity:    models.GapSeverity(r.URL.Query().Get("severity")),
		Status:      models.GapStatus(r.URL.Query().Get("status")),
		Limit:       limit,
		Offset:      offset,
	}

	gaps, total, err := h.repos.Gaps.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list gaps")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":   gaps,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Get handles GET /api/v1/gaps/{id}
func (h *GapsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gapID(w, r)
	if !ok {
		return
	}

	gap, err := h.repos.Gaps.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if gap == nil {
		respondError(w, http.StatusNotFound, "gap not found")
		return
	}

	respondJSON(w, http.StatusOK, gap)
}

// UpdateStatus handles POST /api/v1/gaps/{id}/status
func (h *GapsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gapID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status models.GapStatus `json:"status"`
		Actor  string           `json:"actor,omitempty"`
		Note   string           `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	gap, err := h.repos.Gaps.UpdateStatus(r.Context(), id, req.Status, req.Actor, req.Note)
	if err != nil {
		var transition *models.GapTransitionError
		if errors.As(err, &transition) {
			respondError(w, http.StatusConflict, transition.Error())
			return
		}
		h.logger.Error().Err(err).Str("gap_id", id.String()).Msg("gap transition failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if gap == nil {
		respondError(w, http.StatusNotFound, "gap not found")
		return
	}

	respondJSON(w, http.StatusOK, gap)
}

// AssignOwner handles POST /api/v1/gaps/{id}/owner
func (h *GapsHandler) AssignOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gapID(w, r)
	if !ok {
		return
	}

	var req struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" {
		respondError(w, http.StatusBadRequest, "owner is required")
		return
	}

	if err := h.repos.Gaps.AssignOwner(r.Context(), id, req.Owner); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	gap, err := h.repos.Gaps.GetByID(r.Context(), id)
	if err != nil || gap == nil {
		respondError(w, http.StatusNotFound, "gap not found")
		return
	}

	respondJSON(w, http.StatusOK, gap)
}

// ListEvents handles GET /api/v1/gaps/{id}/events
func (h *GapsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gapID(w, r)
	if !ok {
		return
	}

	events, err := h.repos.Gaps.ListEvents(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  events,
		"total": len(events),
	})
}

// gapID parses the gap id path param, writing the error response itself
func (h *GapsHandler) gapID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid gap id")
		return uuid.Nil, false
	}
	return id, true
}
