package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/metrics"
)

// apiKeyUseCaseWithMetrics decorates APIKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    APIKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewAPIKeyUseCaseWithMetrics wraps an APIKeyUseCase with metrics recording.
func NewAPIKeyUseCaseWithMetrics(useCase APIKeyUseCase, m metrics.BusinessMetrics) APIKeyUseCase {
	return &apiKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for API key creation operations.
func (a *apiKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	start := time.Now()
	output, err := a.next.Create(ctx, input)
	a.record(ctx, "api_key_create", start, statusOf(err))
	return output, err
}

// Verify records metrics for API key verification. The status distinguishes the
// rejection reason, which callers never see.
func (a *apiKeyUseCaseWithMetrics) Verify(ctx context.Context, rawKey string) (*authDomain.Identity, error) {
	start := time.Now()
	identity, err := a.next.Verify(ctx, rawKey)
	a.record(ctx, "api_key_verify", start, verifyStatus(err))
	return identity, err
}

// List records metrics for API key list operations.
func (a *apiKeyUseCaseWithMetrics) List(
	ctx context.Context,
	ownerID string,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	start := time.Now()
	apiKeys, err := a.next.List(ctx, ownerID, offset, limit)
	a.record(ctx, "api_key_list", start, statusOf(err))
	return apiKeys, err
}

// Get records metrics for API key retrieval operations.
func (a *apiKeyUseCaseWithMetrics) Get(
	ctx context.Context,
	ownerID string,
	apiKeyID uuid.UUID,
) (*authDomain.APIKey, error) {
	start := time.Now()
	apiKey, err := a.next.Get(ctx, ownerID, apiKeyID)
	a.record(ctx, "api_key_get", start, statusOf(err))
	return apiKey, err
}

// Revoke records metrics for API key revocation operations.
func (a *apiKeyUseCaseWithMetrics) Revoke(ctx context.Context, ownerID string, apiKeyID uuid.UUID) error {
	start := time.Now()
	err := a.next.Revoke(ctx, ownerID, apiKeyID)
	a.record(ctx, "api_key_revoke", start, statusOf(err))
	return err
}

// Rotate records metrics for API key rotation operations.
func (a *apiKeyUseCaseWithMetrics) Rotate(
	ctx context.Context,
	ownerID string,
	apiKeyID uuid.UUID,
) (*authDomain.CreateAPIKeyOutput, error) {
	start := time.Now()
	output, err := a.next.Rotate(ctx, ownerID, apiKeyID)
	a.record(ctx, "api_key_rotate", start, statusOf(err))
	return output, err
}

// Close delegates to the wrapped use case.
func (a *apiKeyUseCaseWithMetrics) Close(ctx context.Context) error {
	return a.next.Close(ctx)
}

func (a *apiKeyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	a.metrics.RecordOperation(ctx, "auth", operation, status)
	a.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Verify records metrics for session verification.
func (s *sessionUseCaseWithMetrics) Verify(ctx context.Context, rawToken string) (*authDomain.Identity, error) {
	start := time.Now()
	identity, err := s.next.Verify(ctx, rawToken)

	status := verifyStatus(err)
	s.metrics.RecordOperation(ctx, "auth", "session_verify", status)
	s.metrics.RecordDuration(ctx, "auth", "session_verify", time.Since(start), status)

	return identity, err
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func verifyStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, authDomain.ErrRevokedCredential):
		return "revoked"
	case errors.Is(err, authDomain.ErrExpiredCredential):
		return "expired"
	case errors.Is(err, authDomain.ErrInvalidCredential):
		return "invalid"
	default:
		return "error"
	}
}
