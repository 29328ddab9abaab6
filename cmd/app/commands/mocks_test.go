package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

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

func (m *mockAPIKeyUseCase) List(ctx context.Context, ownerID string, offset, limit int) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyUseCase) Get(ctx context.Context, ownerID string, apiKeyID uuid.UUID) (*authDomain.APIKey, error) {
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

func newCreateOutput(name string, scopes []string) *authDomain.CreateAPIKeyOutput {
	apiKey := &authDomain.APIKey{
		ID:        uuid.Must(uuid.NewV7()),
		OwnerID:   "user-1",
		Name:      name,
		KeyHash:   "hash-never-printed",
		KeyPrefix: "zm_abcde",
		Scopes:    scopes,
		IsActive:  true,
	}
	return &authDomain.CreateAPIKeyOutput{
		ID:        apiKey.ID,
		PlainKey:  "zm_abcdefghijklmnopqrstuvwxyz0123456789ABCDEFG",
		KeyPrefix: apiKey.KeyPrefix,
		APIKey:    apiKey,
	}
}
