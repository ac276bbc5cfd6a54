package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/tour-quote-service/internal/config"
	"github.com/ridwanfathin/tour-quote-service/internal/handler"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/repository"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{StorageDriver: config.StorageMemory, LogFormat: "json", LogLevel: "error"}
	repo := repository.NewMemoryRepository()
	m := metrics.New()
	svc := service.NewQuoteService(service.Dependencies{
		Quotes:      repo,
		Itineraries: repo.Itineraries(),
		Metrics:     m,
	})
	return NewServer(cfg, handler.NewQuoteHandler(svc), handler.NewSyncHandler(svc), m)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","storage":"memory"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestServer_HealthStorageCheck(t *testing.T) {
	s := newTestServer(t)
	s.SetStorageCheck(func(ctx context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","storage":"memory"}`, rec.Body.String())
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	registered := map[string]bool{}
	for _, route := range s.GetRouter().Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /v1/quotes",
		"POST /v1/quotes/calculate",
		"GET /v1/quotes/:id/calculation",
		"PUT /v1/quotes/:id/state",
		"POST /v1/quotes/:id/tiers/local",
		"POST /v1/quotes/:id/versions/:index/load",
		"DELETE /v1/quotes/:id/versions/:index",
		"POST /v1/quotes/:id/sync/meals/apply",
		"POST /v1/quotes/:id/sync/accommodation",
		"POST /v1/quotes/:id/import/activities",
		"GET /v1/itineraries/:id",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestServer_CreateQuoteThroughMiddleware(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(`{"name":"關西"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
