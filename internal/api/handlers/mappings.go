package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/pkg/logger"
)

// MappingsHandler handles cross-framework mapping endpoints
type MappingsHandler struct {
	engine *services.AssessmentEngine
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewMappingsHandler creates a new MappingsHandler
func NewMappingsHandler(engine *services.AssessmentEngine, c *cache.RedisCache, log *logger.Logger) *MappingsHandler {
	return &MappingsHandler{
		engine: engine,
		cache:  c,
		logger: log.WithComponent("mappings"),
	}
}

// Get handles GET /api/v1/mappings/{source}/{target}
func (h *MappingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	target := chi.URLParam(r, "target")

	if source == target {
		respondError(w, http.StatusBadRequest, "source and target frameworks must differ")
		return
	}

	// Mappings are pure functions of the catalog, cache them until reload
	if h.cache != nil {
		var cached []models.ControlMapping
		if err := h.cache.GetCachedMapping(r.Context(), source, target, &cached); err == nil {
			respondJSON(w, http.StatusOK, map[string]any{
				"source": source,
				"target": target,
				"data":   cached,
				"total":  len(cached),
			})
			return
		}
	}

	mappings, err := h.engine.MapFrameworks(source, target)
	if err != nil {
		var unknown *models.UnknownFrameworkError
		if errors.As(err, &unknown) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("source", source).Str("target", target).Msg("mapping failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		_ = h.cache.CacheMapping(r.Context(), source, target, mappings, 10*time.Minute)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"source": source,
		"target": target,
		"data":   mappings,
		"total":  len(mappings),
	})
}
