package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsRouter(t *testing.T, skipRoutes ...string) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("test_app")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "test_app", skipRoutes...))
	router.GET("/v1/api-keys/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/v1/api-keys", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, provider
}

func serve(router http.Handler, method, target string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w.Code
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	t.Run("RoutePatternLabel", func(t *testing.T) {
		router, provider := newMetricsRouter(t)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/api-keys/123"))
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/api-keys/456"))
		assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/v1/api-keys"))

		body := scrape(t, provider)
		assert.Contains(t, body, "test_app_http_requests_total")
		assert.Contains(t, body, "test_app_http_request_duration_seconds")
		assert.Contains(t, body, `path="/v1/api-keys/:id"`)
		assert.Contains(t, body, `status_code="201"`)
		assert.NotContains(t, body, "/v1/api-keys/123")
	})

	t.Run("UnmatchedRouteIsUnknown", func(t *testing.T) {
		router, provider := newMetricsRouter(t)

		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/v1/does-not-exist"))

		body := scrape(t, provider)
		assert.Contains(t, body, `path="unknown"`)
		assert.NotContains(t, body, "does-not-exist")
	})

	t.Run("SkippedRoutesNotRecorded", func(t *testing.T) {
		router, provider := newMetricsRouter(t, "/ready")

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/ready"))
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/api-keys/1"))

		body := scrape(t, provider)
		assert.NotContains(t, body, `path="/ready"`)
		assert.Contains(t, body, `path="/v1/api-keys/:id"`)
	})
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "RoutePattern", input: "/v1/api-keys/:id", expected: "/v1/api-keys/:id"},
		{name: "EmptyPath", input: "", expected: "unknown"},
		{name: "RootPath", input: "/", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, routeLabel(tt.input))
		})
	}
}
