package handlers

import (
	"net/http"
	"time"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/internal/infrastructure/database/repository"
	"complyguard-lab/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	repos  *repository.Repositories
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(repos *repository.Repositories, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		repos:  repos,
		cache:  c,
		logger: log.WithComponent("stats"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	// Try to get from cache first
	var stats models.AssessmentStats
	if h.cache != nil {
		if err := h.cache.GetJSON(r.Context(), cache.KeyStats, &stats); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=300")
			respondJSON(w, http.StatusOK, stats)
			return
		}
	}

	// Cache miss - compute stats
	if h.repos != nil {
		dbStats, err := h.repos.Assessments.GetStats(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to fetch assessment stats")
		} else {
			stats = *dbStats
		}
	}
	if stats.GapsBySeverity == nil {
		stats.GapsBySeverity = make(map[string]int64)
	}

	if h.cache != nil {
		_ = h.cache.SetJSON(r.Context(), cache.KeyStats, stats, 5*time.Minute)
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	respondJSON(w, http.StatusOK, stats)
}
