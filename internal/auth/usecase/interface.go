// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

// APIKeyRepository defines persistence operations for API key records.
// Implementations must support transaction-aware operations via context propagation.
type APIKeyRepository interface {
	// Create stores a new API key in the repository.
	Create(ctx context.Context, apiKey *authDomain.APIKey) error

	// Deactivate marks an active API key inactive. It reports false when the key
	// does not exist or was already inactive, so concurrent callers see exactly
	// one successful deactivation.
	Deactivate(ctx context.Context, apiKeyID uuid.UUID) (bool, error)

	// Get retrieves an API key by ID. Returns ErrAPIKeyNotFound if not found.
	Get(ctx context.Context, apiKeyID uuid.UUID) (*authDomain.APIKey, error)

	// GetByKeyHash retrieves an API key by the hash of its raw value.
	// Returns ErrAPIKeyNotFound if no record carries the hash.
	GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error)

	// ListByOwner returns the owner's API keys ordered by creation time, newest first.
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*authDomain.APIKey, error)

	// TouchLastUsed records the last successful verification time of a key.
	TouchLastUsed(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error
}

// APIKeyUseCase defines business logic operations for verifying and managing API keys.
type APIKeyUseCase interface {
	// Create issues a new API key for the owner. The plain key is only returned once
	// and is never persisted; only its hash is stored.
	//
	// Returns ErrInvalidInput when the name is blank, the scope list is empty, contains
	// unregistered scopes, or the expiration is not in the future.
	Create(ctx context.Context, input *authDomain.CreateAPIKeyInput) (*authDomain.CreateAPIKeyOutput, error)

	// Verify hashes the raw key, looks it up and checks it is active and not expired.
	// Unknown, revoked and expired keys all return errors matching ErrInvalidCredential.
	// A store failure or lookup timeout is returned as an internal error.
	Verify(ctx context.Context, rawKey string) (*authDomain.Identity, error)

	// List returns the owner's API keys.
	List(ctx context.Context, ownerID string, offset, limit int) ([]*authDomain.APIKey, error)

	// Get returns one of the owner's API keys. Keys of other owners are reported as
	// ErrAPIKeyNotFound.
	Get(ctx context.Context, ownerID string, apiKeyID uuid.UUID) (*authDomain.APIKey, error)

	// Revoke deactivates the key. Revoking an inactive key is a no-op.
	Revoke(ctx context.Context, ownerID string, apiKeyID uuid.UUID) error

	// Rotate deactivates the key and issues a replacement with the same name, scopes
	// and expiration in a single transaction. Returns ErrAPIKeyInactive for revoked keys.
	Rotate(ctx context.Context, ownerID string, apiKeyID uuid.UUID) (*authDomain.CreateAPIKeyOutput, error)

	// Close waits for pending last-used updates to finish or for ctx to be done.
	Close(ctx context.Context) error
}

// SessionUseCase verifies session tokens issued by the external identity provider.
type SessionUseCase interface {
	// Verify resolves the token with the identity provider. Any provider failure,
	// timeout or rejection returns ErrInvalidCredential.
	Verify(ctx context.Context, rawToken string) (*authDomain.Identity, error)
}

// Authenticator turns a raw Authorization header into an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*authDomain.Identity, error)
}
