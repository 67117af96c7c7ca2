package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/internal/infrastructure/database/repository"
	"complyguard-lab/pkg/logger"
)

// AssessmentsHandler handles assessment endpoints
type AssessmentsHandler struct {
	engine *services.AssessmentEngine
	repos  *repository.Repositories
	logger *logger.Logger
}

// NewAssessmentsHandler creates a new AssessmentsHandler
func NewAssessmentsHandler(engine *services.AssessmentEngine, repos *repository.Repositories, log *logger.Logger) *AssessmentsHandler {
	return &AssessmentsHandler{
		engine: engine,
		repos:  repos,
		logger: log.WithComponent("assessments"),
	}
}

// Run handles POST /api/v1/assessments
func (h *AssessmentsHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.engine.RunAssessment(r.Context(), &req)
	if err != nil {
		var unknownFw *models.UnknownFrameworkError
		var unknownCtl *models.UnknownControlError
		switch {
		case errors.As(err, &unknownFw):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &unknownCtl):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("assessment failed")
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GetSession handles GET /api/v1/assessments/{session_id}
func (h *AssessmentsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	result, err := h.engine.GetAssessment(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("assessment lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "no assessment found for session")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// List handles GET /api/v1/assessments
func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	limit, offset := pagination(r, 100)
	summaries, total, err := h.repos.Assessments.ListSessions(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list assessments")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":   summaries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// pagination parses limit/offset query params with a default limit
func pagination(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
