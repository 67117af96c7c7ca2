package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/services"
	"complyguard-lab/pkg/logger"
)

func newFrameworksHandler(t *testing.T) *FrameworksHandler {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	cat, err := services.NewCatalog(config.CatalogConfig{}, log)
	require.NoError(t, err)
	return NewFrameworksHandler(cat, log)
}

func frameworksRouter(h *FrameworksHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/frameworks", h.List)
	r.Get("/frameworks/{id}", h.Get)
	r.Get("/frameworks/{id}/controls", h.Controls)
	r.Post("/frameworks/reload", h.Reload)
	return r
}

func TestFrameworksList(t *testing.T) {
	router := frameworksRouter(newFrameworksHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frameworks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Total   int   `json:"total"`
		Version int64 `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Total)
	assert.Equal(t, int64(1), body.Version)
}

func TestFrameworksGet(t *testing.T) {
	router := frameworksRouter(newFrameworksHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frameworks/gdpr", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "gdpr", body.ID)
	assert.Equal(t, "General Data Protection Regulation", body.Name)
}

func TestFrameworksControls(t *testing.T) {
	router := frameworksRouter(newFrameworksHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frameworks/gdpr/controls", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		FrameworkID string `json:"framework_id"`
		Total       int    `json:"total"`
		Data        []struct {
			DomainID string `json:"domain_id"`
			Control  struct {
				ID string `json:"id"`
			} `json:"control"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "gdpr", body.FrameworkID)
	assert.Equal(t, 6, body.Total)
	require.NotEmpty(t, body.Data)
	assert.NotEmpty(t, body.Data[0].DomainID)
	assert.NotEmpty(t, body.Data[0].Control.ID)
}

func TestFrameworksGetUnknown(t *testing.T) {
	router := frameworksRouter(newFrameworksHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frameworks/hipaa", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "hipaa")
}

func TestFrameworksReload(t *testing.T) {
	router := frameworksRouter(newFrameworksHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/frameworks/reload", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "reloaded", body.Status)
	assert.Equal(t, int64(2), body.Version)
}
