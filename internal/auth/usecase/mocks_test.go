package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/auth/identity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAPIKeyRepository is a mock implementation of APIKeyRepository for testing.
type mockAPIKeyRepository struct {
	mock.Mock
}

func (m *mockAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *mockAPIKeyRepository) Deactivate(ctx context.Context, apiKeyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, apiKeyID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAPIKeyRepository) Get(ctx context.Context, apiKeyID uuid.UUID) (*authDomain.APIKey, error) {
	args := m.Called(ctx, apiKeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepository) ListByOwner(
	ctx context.Context,
	ownerID string,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepository) TouchLastUsed(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error {
	args := m.Called(ctx, apiKeyID, usedAt)
	return args.Error(0)
}

// mockAPIKeyService is a mock implementation of APIKeyService for testing.
type mockAPIKeyService struct {
	mock.Mock
}

func (m *mockAPIKeyService) GenerateKey() (string, string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.String(2), args.Error(3)
}

func (m *mockAPIKeyService) HashKey(plainKey string) string {
	args := m.Called(plainKey)
	return args.String(0)
}

func (m *mockAPIKeyService) Prefix() string {
	args := m.Called()
	return args.String(0)
}

// mockAPIKeyUseCase is a mock implementation of APIKeyUseCase for testing.
type mockAPIKeyUseCase struct {
	mock.Mock
}

func (m *mockAPIKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateAPIKeyOutput), args.Error(1)
}

func (m *mockAPIKeyUseCase) Verify(ctx context.Context, rawKey string) (*authDomain.Identity, error) {
	args := m.Called(ctx, rawKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Identity), args.Error(1)
}

func (m *mockAPIKeyUseCase) List(
	ctx context.Context,
	ownerID string,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyUseCase) Get(
	ctx context.Context,
	ownerID string,
	apiKeyID uuid.UUID,
) (*authDomain.APIKey, error) {
	args := m.Called(ctx, ownerID, apiKeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyUseCase) Revoke(ctx context.Context, ownerID string, apiKeyID uuid.UUID) error {
	args := m.Called(ctx, ownerID, apiKeyID)
	return args.Error(0)
}

func (m *mockAPIKeyUseCase) Rotate(
	ctx context.Context,
	ownerID string,
	apiKeyID uuid.UUID,
) (*authDomain.CreateAPIKeyOutput, error) {
	args := m.Called(ctx, ownerID, apiKeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateAPIKeyOutput), args.Error(1)
}

func (m *mockAPIKeyUseCase) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockSessionUseCase is a mock implementation of SessionUseCase for testing.
type mockSessionUseCase struct {
	mock.Mock
}

func (m *mockSessionUseCase) Verify(ctx context.Context, rawToken string) (*authDomain.Identity, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Identity), args.Error(1)
}

// mockProvider is a mock implementation of identity.Provider for testing.
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) ResolveSessionToken(ctx context.Context, token string) (*identity.SessionUser, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.SessionUser), args.Error(1)
}

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}
