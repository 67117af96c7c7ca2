package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/internal/infrastructure/database/repository"
	"complyguard-lab/pkg/logger"
)

// IncidentsHandler handles breach incident and notification endpoints
type IncidentsHandler struct {
	notification *services.NotificationEngine
	repos        *repository.Repositories
	publisher    services.EventPublisher
	logger       *logger.Logger
}

// NewIncidentsHandler creates a new IncidentsHandler
func NewIncidentsHandler(
	notification *services.NotificationEngine,
	repos *repository.Repositories,
	publisher services.EventPublisher,
	log *logger.Logger,
) *IncidentsHandler {
	return &IncidentsHandler{
		notification: notification,
		repos:        repos,
		publisher:    publisher,
		logger:       log.WithComponent("incidents"),
	}
}

// CreateIncidentRequest is the detection-time input
type CreateIncidentRequest struct {
	DetectedAt time.Time              `json:"detected_at"`
	Nature     models.BreachNature    `json:"nature"`
	Context    models.IncidentContext `json:"context"`
}

// Create handles POST /api/v1/incidents: assesses the breach and stores
// the incident with its immutable notification deadlines
func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DetectedAt.IsZero() {
		req.DetectedAt = time.Now().UTC()
	}
	if req.Nature == "" {
		req.Nature = models.BreachConfidentiality
	}

	incident := h.notification.AssessBreach(req.DetectedAt, req.Nature, req.Context)

	if h.repos != nil {
		if err := h.repos.Incidents.Create(r.Context(), incident); err != nil {
			h.logger.Error().Err(err).Msg("failed to persist incident")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if h.publisher != nil {
		if err := h.publisher.PublishBreachAssessed(r.Context(), incident); err != nil {
			h.logger.Warn().Err(err).Msg("failed to publish breach event")
		}
	}

	respondJSON(w, http.StatusCreated, incident)
}

// Get handles GET /api/v1/incidents/{id}
func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	incident, err := h.repos.Incidents.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if incident == nil {
		respondError(w, http.StatusNotFound, "incident not found")
		return
	}

	respondJSON(w, http.StatusOK, incident)
}

// List handles GET /api/v1/incidents
func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	limit, offset := pagination(r, 100)
	status := models.IncidentStatus(r.URL.Query().Get("status"))

	incidents, total, err := h.repos.Incidents.List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list incidents")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":   incidents,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// ReportRequest records that a notification went out on a channel
type ReportRequest struct {
	Channel    models.NotificationChannel `json:"channel"`
	ReportedAt time.Time                  `json:"reported_at"`
}

// Report handles POST /api/v1/incidents/{id}/report: tracks a sent
// notification against its deadline
func (h *IncidentsHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Channel != models.ChannelSupervisory && req.Channel != models.ChannelDataSubjects {
		respondError(w, http.StatusBadRequest, "channel must be supervisory_authority or data_subjects")
		return
	}
	if req.ReportedAt.IsZero() {
		req.ReportedAt = time.Now().UTC()
	}

	incident, err := h.repos.Incidents.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if incident == nil {
		respondError(w, http.StatusNotFound, "incident not found")
		return
	}

	report := h.notification.TrackReport(incident, req.Channel, req.ReportedAt)

	if err := h.repos.Incidents.RecordReport(r.Context(), incident, &report); err != nil {
		h.logger.Error().Err(err).Str("incident_id", id.String()).Msg("failed to record report")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishBreachReported(r.Context(), incident, &report); err != nil {
			h.logger.Warn().Err(err).Msg("failed to publish report event")
		}
	}

	respondJSON(w, http.StatusOK, report)
}

// ListEvents handles GET /api/v1/incidents/{id}/events
func (h *IncidentsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	events, err := h.repos.Incidents.ListEvents(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  events,
		"total": len(events),
	})
}

// Authorities handles GET /api/v1/incidents/authorities/{jurisdiction}
func (h *IncidentsHandler) Authorities(w http.ResponseWriter, r *http.Request) {
	jurisdiction := chi.URLParam(r, "jurisdiction")

	authority, err := h.notification.ResolveAuthority(jurisdiction)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, authority)
}

// incidentID parses the incident id path param, writing the error response itself
func (h *IncidentsHandler) incidentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid incident id")
		return uuid.Nil, false
	}
	return id, true
}
