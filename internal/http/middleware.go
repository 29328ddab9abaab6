package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/gatekeeper/internal/gateway"
)

// CustomLoggerMiddleware logs one line per request with the request id and, when
// the gateway resolved one, the caller identity. Query strings are not logged.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		attrs := []any{
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if identity, ok := gateway.GetIdentity(c.Request.Context()); ok {
			attrs = append(attrs,
				slog.String("identity_id", identity.ID),
				slog.String("auth_mode", string(identity.AuthMode)))
			if identity.KeyID != nil {
				attrs = append(attrs, slog.String("key_id", identity.KeyID.String()))
			}
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http request", attrs...)
		case status >= 400:
			logger.Warn("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}
