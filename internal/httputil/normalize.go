package httputil

import (
	"errors"
	"net/http"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// Kind is the closed taxonomy of failures surfaced to clients.
type Kind string

// Failure kinds.
const (
	KindInvalidCredential Kind = "InvalidCredential"
	KindRevokedCredential Kind = "RevokedCredential"
	KindExpiredCredential Kind = "ExpiredCredential"
	KindInsufficientScope Kind = "InsufficientScope"
	KindNotFound          Kind = "NotFound"
	KindRateLimited       Kind = "RateLimited"
	KindValidationFailed  Kind = "ValidationFailed"
	KindInternalError     Kind = "InternalError"
)

// NormalizedError is the client-safe view of an error.
type NormalizedError struct {
	Kind           Kind
	Message        string
	StatusCode     int
	Details        map[string]any
	RequiredScopes []string
	RetryAfter     int // seconds, set for RateLimited
	Operational    bool
}

// retryAfterer is implemented by throttling errors.
type retryAfterer interface {
	RetryAfterSeconds() int
}

// Normalize maps any error to the failure taxonomy. Unknown errors become
// InternalError with no detail; the caller decides whether to expose more.
func Normalize(err error) NormalizedError {
	var scopeErr *authDomain.InsufficientScopeError

	switch {
	case errors.As(err, &scopeErr):
		return NormalizedError{
			Kind:           KindInsufficientScope,
			Message:        "Insufficient scope",
			StatusCode:     http.StatusForbidden,
			Details:        map[string]any{"missing_scopes": scopeErr.Missing},
			RequiredScopes: scopeErr.Required,
			Operational:    true,
		}

	case apperrors.Is(err, authDomain.ErrRevokedCredential):
		return unauthorized(KindRevokedCredential)

	case apperrors.Is(err, authDomain.ErrExpiredCredential):
		return unauthorized(KindExpiredCredential)

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return unauthorized(KindInvalidCredential)

	case apperrors.Is(err, apperrors.ErrForbidden):
		return NormalizedError{
			Kind:        KindInsufficientScope,
			Message:     "Insufficient scope",
			StatusCode:  http.StatusForbidden,
			Operational: true,
		}

	case apperrors.Is(err, apperrors.ErrRateLimited):
		normalized := NormalizedError{
			Kind:        KindRateLimited,
			Message:     "Too many requests",
			StatusCode:  http.StatusTooManyRequests,
			RetryAfter:  1,
			Operational: true,
		}
		var ra retryAfterer
		if errors.As(err, &ra) {
			normalized.RetryAfter = ra.RetryAfterSeconds()
		}
		normalized.Details = map[string]any{"retry_after": normalized.RetryAfter}
		return normalized

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return NormalizedError{
			Kind:        KindValidationFailed,
			Message:     "Validation failed",
			StatusCode:  http.StatusBadRequest,
			Details:     validationDetails(err),
			Operational: true,
		}

	case apperrors.Is(err, apperrors.ErrNotFound):
		return NormalizedError{
			Kind:        KindNotFound,
			Message:     "Not found",
			StatusCode:  http.StatusNotFound,
			Operational: true,
		}

	default:
		return NormalizedError{
			Kind:       KindInternalError,
			Message:    "Internal server error",
			StatusCode: http.StatusInternalServerError,
		}
	}
}

// unauthorized builds the single 401 shape shared by every credential failure.
func unauthorized(kind Kind) NormalizedError {
	return NormalizedError{
		Kind:        kind,
		Message:     "Unauthorized",
		StatusCode:  http.StatusUnauthorized,
		Operational: true,
	}
}

// validationDetails returns per-field messages when the chain carries
// validation.Errors, otherwise the error text under "error".
func validationDetails(err error) map[string]any {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			fields[field] = fieldErr.Error()
		}
		return map[string]any{"fields": fields}
	}
	return map[string]any{"error": err.Error()}
}
