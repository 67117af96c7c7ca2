package handlers

import (
	"encoding/json"
	"net/http"

	"complyguard-lab/internal/domain/services"
	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/internal/infrastructure/database/repository"
	"complyguard-lab/internal/streaming"
	"complyguard-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health      *HealthHandler
	Frameworks  *FrameworksHandler
	Mappings    *MappingsHandler
	Assessments *AssessmentsHandler
	Gaps        *GapsHandler
	Incidents   *IncidentsHandler
	Stats       *StatsHandler
	Streaming   *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Catalog      *services.Catalog
	Engine       *services.AssessmentEngine
	Notification *services.NotificationEngine
	Publisher    services.EventPublisher
	Cache        *cache.RedisCache
	Repos        *repository.Repositories
	WSHub        *streaming.WebSocketHub
	EventBus     *streaming.EventBus
	Logger       *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(deps.Cache, deps.Repos, deps.Logger),
		Frameworks:  NewFrameworksHandler(deps.Catalog, deps.Logger),
		Mappings:    NewMappingsHandler(deps.Engine, deps.Cache, deps.Logger),
		Assessments: NewAssessmentsHandler(deps.Engine, deps.Repos, deps.Logger),
		Gaps:        NewGapsHandler(deps.Engine, deps.Repos, deps.Logger),
		Incidents:   NewIncidentsHandler(deps.Notification, deps.Repos, deps.Publisher, deps.Logger),
		Stats:       NewStatsHandler(deps.Repos, deps.Cache, deps.Logger),
		Streaming:   NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
