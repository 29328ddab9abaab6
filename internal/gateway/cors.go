package gateway

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// ErrOriginNotAllowed rejects a cross-origin request from an unlisted origin.
var ErrOriginNotAllowed = apperrors.Wrap(apperrors.ErrForbidden, "origin not allowed")

// NewCORSHandler builds the CORS stage used by routes with RoutePolicy.CORS.
// It returns nil when CORS is disabled or no origin is configured, in which
// case the pipeline only answers preflights with 204.
func NewCORSHandler(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOrigins)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no origins configured - CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled",
		slog.Int("origin_count", len(origins)),
		slog.Any("origins", origins))

	handler := cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowHeaders: []string{
			"Authorization",
			"Content-Type",
		},
		ExposeHeaders: []string{
			"X-Request-Id",
			"Retry-After",
			headerRateLimitLimit,
			headerRateLimitRemaining,
			headerRateLimitReset,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[strings.ToLower(origin)] = struct{}{}
	}

	// Unlisted origins get the standard error body instead of the bare 403
	// written by the cors handler.
	return func(c *gin.Context) {
		if !originAllowed(c.Request, allowed) {
			httputil.HandleErrorGin(c, ErrOriginNotAllowed, logger)
			return
		}
		handler(c)
	}
}

// originAllowed reports whether the cors handler would accept the request origin.
// Requests without an Origin header and same-host requests are not cross-origin.
func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	if _, ok := allowed["*"]; ok {
		return true
	}
	_, ok := allowed[strings.ToLower(origin)]
	return ok
}

// parseOrigins splits a comma-separated origin list, dropping blanks.
func parseOrigins(originsStr string) []string {
	if originsStr == "" {
		return nil
	}

	parts := strings.Split(originsStr, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
