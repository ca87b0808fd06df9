package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/internship-api/internal/service"
)

func TestSystemRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := func(ctx context.Context) error { return nil }
	failing := func(ctx context.Context) error { return errors.New("connection refused") }

	t.Run("ready", func(t *testing.T) {
		r := gin.New()
		RegisterSystemRoutes(r, NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{"postgres": healthy}))

		for _, path := range []string{"/health", "/ready", "/metrics"} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		r := gin.New()
		RegisterSystemRoutes(r, NewMetricsHandler(nil, map[string]ReadinessCheck{"postgres": healthy, "redis": failing}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
