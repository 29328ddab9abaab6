// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// touchTimeout bounds each detached last-used update.
const touchTimeout = 5 * time.Second

// apiKeyUseCase implements APIKeyUseCase.
type apiKeyUseCase struct {
	txManager     database.TxManager
	apiKeyRepo    APIKeyRepository
	apiKeyService authService.APIKeyService
	lookupTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu      sync.Mutex
	closed  bool
	touches sync.WaitGroup
}

// Create issues and persists a new API key.
func (a *apiKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	if err := a.validateCreateInput(input); err != nil {
		return nil, err
	}

	apiKey, output, err := a.newAPIKey(input.OwnerID, input.Name, input.Scopes, input.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := a.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, err
	}

	return output, nil
}

// Verify authenticates a raw API key.
//
// Security Notes:
//   - Unknown, revoked and expired keys return errors that all match
//     ErrInvalidCredential so callers cannot enumerate keys
//   - The computed hash is compared with the stored one in constant time
//   - The last-used update runs in the background and never fails verification
func (a *apiKeyUseCase) Verify(ctx context.Context, rawKey string) (*authDomain.Identity, error) {
	keyHash := a.apiKeyService.HashKey(rawKey)

	lookupCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	apiKey, err := a.apiKeyRepo.GetByKeyHash(lookupCtx, keyHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrAPIKeyNotFound) {
			return nil, authDomain.ErrInvalidCredential
		}
		return nil, apperrors.Wrap(err, "api key lookup failed")
	}

	if subtle.ConstantTimeCompare([]byte(keyHash), []byte(apiKey.KeyHash)) != 1 {
		return nil, authDomain.ErrInvalidCredential
	}

	if !apiKey.IsActive {
		return nil, authDomain.ErrRevokedCredential
	}

	now := a.now()
	if apiKey.IsExpired(now) {
		return nil, authDomain.ErrExpiredCredential
	}

	a.touchLastUsed(ctx, apiKey, now)

	return authDomain.NewAPIKeyIdentity(apiKey), nil
}

// List returns the owner's API keys.
func (a *apiKeyUseCase) List(
	ctx context.Context,
	ownerID string,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	return a.apiKeyRepo.ListByOwner(ctx, ownerID, offset, limit)
}

// Get returns one of the owner's API keys.
func (a *apiKeyUseCase) Get(
	ctx context.Context,
	ownerID string,
	apiKeyID uuid.UUID,
) (*authDomain.APIKey, error) {
	apiKey, err := a.apiKeyRepo.Get(ctx, apiKeyID)
	if err != nil {
		return nil, err
	}
	if apiKey.OwnerID != ownerID {
		return nil, authDomain.ErrAPIKeyNotFound
	}
	return apiKey, nil
}

// Revoke deactivates one of the owner's API keys.
func (a *apiKeyUseCase) Revoke(ctx context.Context, ownerID string, apiKeyID uuid.UUID) error {
	apiKey, err := a.Get(ctx, ownerID, apiKeyID)
	if err != nil {
		return err
	}
	if !apiKey.IsActive {
		return nil
	}

	_, err = a.apiKeyRepo.Deactivate(ctx, apiKey.ID)
	return err
}

// Rotate replaces an active key with a freshly generated one.
func (a *apiKeyUseCase) Rotate(
	ctx context.Context,
	ownerID string,
	apiKeyID uuid.UUID,
) (*authDomain.CreateAPIKeyOutput, error) {
	var output *authDomain.CreateAPIKeyOutput

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := a.Get(ctx, ownerID, apiKeyID)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return authDomain.ErrAPIKeyInactive
		}

		replacement, out, err := a.newAPIKey(current.OwnerID, current.Name, current.Scopes, current.ExpiresAt)
		if err != nil {
			return err
		}

		// The conditional deactivation serializes concurrent rotations of the
		// same key: only the caller that flips it inactive issues a replacement.
		deactivated, err := a.apiKeyRepo.Deactivate(ctx, current.ID)
		if err != nil {
			return err
		}
		if !deactivated {
			return authDomain.ErrAPIKeyInactive
		}
		if err := a.apiKeyRepo.Create(ctx, replacement); err != nil {
			return err
		}

		output = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// Close stops accepting last-used updates and waits for the pending ones.
func (a *apiKeyUseCase) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.touches.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// touchLastUsed updates the key's last-used time in the background with a context
// detached from the request.
func (a *apiKeyUseCase) touchLastUsed(ctx context.Context, apiKey *authDomain.APIKey, usedAt time.Time) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.touches.Add(1)
	a.mu.Unlock()

	apiKeyID := apiKey.ID
	keyPrefix := apiKey.KeyPrefix
	touchCtx := context.WithoutCancel(ctx)

	go func() {
		defer a.touches.Done()

		ctx, cancel := context.WithTimeout(touchCtx, touchTimeout)
		defer cancel()

		if err := a.apiKeyRepo.TouchLastUsed(ctx, apiKeyID, usedAt); err != nil {
			a.logger.Warn("failed to update api key last used time",
				slog.String("key_id", apiKeyID.String()),
				slog.String("key_prefix", keyPrefix),
				slog.Any("error", err),
			)
		}
	}()
}

// newAPIKey generates the key material and builds the record plus the one-time output.
func (a *apiKeyUseCase) newAPIKey(
	ownerID, name string,
	scopes []string,
	expiresAt *time.Time,
) (*authDomain.APIKey, *authDomain.CreateAPIKeyOutput, error) {
	plainKey, keyHash, keyPrefix, err := a.apiKeyService.GenerateKey()
	if err != nil {
		return nil, nil, err
	}

	apiKey := &authDomain.APIKey{
		ID:        uuid.Must(uuid.NewV7()),
		OwnerID:   ownerID,
		Name:      name,
		KeyHash:   keyHash,
		KeyPrefix: keyPrefix,
		Scopes:    slices.Clone(scopes),
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedAt: a.now(),
	}

	return apiKey, &authDomain.CreateAPIKeyOutput{
		ID:        apiKey.ID,
		PlainKey:  plainKey,
		KeyPrefix: keyPrefix,
		APIKey:    apiKey,
	}, nil
}

func (a *apiKeyUseCase) validateCreateInput(input *authDomain.CreateAPIKeyInput) error {
	now := a.now()
	err := validation.ValidateStruct(input,
		validation.Field(&input.OwnerID, validation.Required, customValidation.NotBlank),
		validation.Field(&input.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&input.Scopes, validation.Required, customValidation.RegisteredScopes),
		validation.Field(&input.ExpiresAt, validation.By(func(value any) error {
			expiresAt, _ := value.(*time.Time)
			if expiresAt != nil && !expiresAt.After(now) {
				return validation.NewError("validation_expires_at_future", "must be in the future")
			}
			return nil
		})),
	)
	return customValidation.WrapValidationError(err)
}

// NewAPIKeyUseCase creates a new APIKeyUseCase with the provided dependencies.
func NewAPIKeyUseCase(
	txManager database.TxManager,
	apiKeyRepo APIKeyRepository,
	apiKeyService authService.APIKeyService,
	lookupTimeout time.Duration,
	logger *slog.Logger,
) APIKeyUseCase {
	return &apiKeyUseCase{
		txManager:     txManager,
		apiKeyRepo:    apiKeyRepo,
		apiKeyService: apiKeyService,
		lookupTimeout: lookupTimeout,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}
