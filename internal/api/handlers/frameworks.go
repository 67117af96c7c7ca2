package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/pkg/logger"
)

// FrameworksHandler handles framework catalog endpoints
type FrameworksHandler struct {
	catalog *services.Catalog
	logger  *logger.Logger
}

// NewFrameworksHandler creates a new FrameworksHandler
func NewFrameworksHandler(catalog *services.Catalog, log *logger.Logger) *FrameworksHandler {
	return &FrameworksHandler{
		catalog: catalog,
		logger:  log.WithComponent("frameworks"),
	}
}

// List handles GET /api/v1/frameworks
func (h *FrameworksHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.catalog.Snapshot()
	frameworks := snap.List()

	respondJSON(w, http.StatusOK, map[string]any{
		"data":    frameworks,
		"total":   len(frameworks),
		"version": snap.Version,
	})
}

// Get handles GET /api/v1/frameworks/{id}
func (h *FrameworksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fw, err := h.catalog.Framework(id)
	if err != nil {
		var unknown *models.UnknownFrameworkError
		if errors.As(err, &unknown) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, fw)
}

// Controls handles GET /api/v1/frameworks/{id}/controls
func (h *FrameworksHandler) Controls(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fw, err := h.catalog.Framework(id)
	if err != nil {
		var unknown *models.UnknownFrameworkError
		if errors.As(err, &unknown) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type controlEntry struct {
		DomainID string         `json:"domain_id"`
		Control  models.Control `json:"control"`
	}
	var controls []controlEntry
	for _, d := range fw.Domains {
		for _, c := range d.Controls {
			controls = append(controls, controlEntry{DomainID: d.ID, Control: c})
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"framework_id": fw.ID,
		"data":         controls,
		"total":        len(controls),
	})
}

// Reload handles POST /api/v1/frameworks/reload
func (h *FrameworksHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(); err != nil {
		h.logger.Error().Err(err).Msg("catalog reload failed")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	snap := h.catalog.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "reloaded",
		"frameworks": len(snap.Order),
		"version":    snap.Version,
	})
}
