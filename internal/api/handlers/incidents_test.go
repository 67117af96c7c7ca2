package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/pkg/logger"
)

func newIncidentsHandler() *IncidentsHandler {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	engine := services.NewNotificationEngine(config.DefaultNotificationConfig(), log)
	return NewIncidentsHandler(engine, nil, nil, log)
}

func incidentsRouter(h *IncidentsHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/incidents", h.Create)
	r.Get("/incidents", h.List)
	r.Get("/incidents/authorities/{jurisdiction}", h.Authorities)
	return r
}

func TestIncidentsCreateAssessesBreach(t *testing.T) {
	router := incidentsRouter(newIncidentsHandler())

	payload := `{
		"detected_at": "2026-01-01T00:00:00Z",
		"nature": "confidentiality",
		"context": {
			"description": "credential stuffing against customer portal",
			"cvss": 9.5,
			"data_types": ["financial"],
			"user_count": 200000,
			"exploited": true,
			"jurisdiction": "DE"
		}
	}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/incidents", strings.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var incident models.BreachIncident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incident))
	assert.Equal(t, models.RiskBucketHigh, incident.Risk.Bucket)
	assert.InDelta(t, 93.0, incident.Risk.Score, 1e-9)
	assert.True(t, incident.Notification.SupervisoryRequired)
	assert.Equal(t, "2026-01-04T00:00:00Z", incident.Notification.SupervisoryDeadline.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, models.IncidentNotificationRequired, incident.Status)
	assert.NotEmpty(t, incident.Actions)
}

func TestIncidentsCreateDefaultsNature(t *testing.T) {
	router := incidentsRouter(newIncidentsHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/incidents", strings.NewReader(`{"context":{}}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var incident models.BreachIncident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incident))
	assert.Equal(t, models.BreachConfidentiality, incident.Nature)
	assert.Equal(t, models.IncidentNotificationNotRequired, incident.Status)
	assert.False(t, incident.DetectedAt.IsZero())
}

func TestIncidentsCreateRejectsBadBody(t *testing.T) {
	router := incidentsRouter(newIncidentsHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/incidents", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIncidentsListWithoutPersistence(t *testing.T) {
	router := incidentsRouter(newIncidentsHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/incidents", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIncidentsAuthorities(t *testing.T) {
	router := incidentsRouter(newIncidentsHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/incidents/authorities/fr", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var authority models.AuthorityContact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authority))
	assert.Equal(t, "CNIL", authority.Authority)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/incidents/authorities/ZZ", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
