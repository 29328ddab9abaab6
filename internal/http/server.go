// Package http provides the HTTP server, its middleware and the metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/gateway"
	"github.com/allisson/gatekeeper/internal/httputil"
	"github.com/allisson/gatekeeper/internal/metrics"
)

// RouteRegisterer is implemented by handlers that own a set of gateway routes.
type RouteRegisterer interface {
	RegisterRoutes(r *gateway.Registrar)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Server is the public API server.
type Server struct {
	db     *sql.DB
	checks map[string]ReadinessCheck
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The database is always part of readiness.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		checks: make(map[string]ReadinessCheck),
		logger: logger,
		server: newHTTPServer(host, port),
	}
}

// AddReadinessCheck adds a named component to GET /ready.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// SetupRouter builds the gin engine: recovery, request id, request logging,
// optional HTTP metrics, health endpoints and the /v1 gateway routes.
func (s *Server) SetupRouter(
	pipeline *gateway.Pipeline,
	metricsProvider *metrics.Provider,
	handlers ...RouteRegisterer,
) {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		httputil.HandleErrorGin(c, fmt.Errorf("panic recovered: %v", recovered), s.logger)
	}))
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsProvider.Namespace(), "/ready"))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := gateway.NewRegistrar(router.Group("/v1"), pipeline)
	for _, handler := range handlers {
		handler.RegisterRoutes(v1)
	}

	s.server.Handler = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	return listenAndServe(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return shutdown(ctx, s.server, s.logger, "http server")
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler pings the database and every registered dependency.
// Returns 503 with the failing components when any check fails.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	components := make(map[string]string, len(s.checks)+1)

	if s.db == nil || s.db.PingContext(ctx) != nil {
		ready = false
		components["database"] = "error"
	} else {
		components["database"] = "ok"
	}

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", name), slog.Any("error", err))
			ready = false
			components[name] = "error"
			continue
		}
		components[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
