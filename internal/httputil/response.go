// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error          string         `json:"error"`
	Success        bool           `json:"success"`
	Details        map[string]any `json:"details,omitempty"`
	RequiredScopes []string       `json:"required_scopes,omitempty"`
}

// SuccessResponse wraps successful payloads.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// RespondSuccess writes {"success":true,"data":...} with the given status code.
func RespondSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// HandleErrorGin normalizes err, logs it and writes the JSON error response.
//
// Operational failures are logged at warn level. Internal errors are logged at
// error level with the full chain; their body only carries the error text when
// gin runs in debug mode (APP_ENV=development).
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	normalized := Normalize(err)

	if logger != nil {
		attrs := []any{
			slog.String("kind", string(normalized.Kind)),
			slog.Int("status_code", normalized.StatusCode),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		}
		if normalized.Operational {
			logger.Warn("request rejected", attrs...)
		} else {
			logger.Error("request failed", attrs...)
		}
	}

	details := normalized.Details
	if !normalized.Operational && gin.IsDebugging() {
		details = map[string]any{"error": err.Error()}
	}

	if normalized.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(normalized.RetryAfter))
	}

	c.AbortWithStatusJSON(normalized.StatusCode, ErrorResponse{
		Error:          normalized.Message,
		Success:        false,
		Details:        details,
		RequiredScopes: normalized.RequiredScopes,
	})
}
