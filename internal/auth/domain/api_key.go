package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is the durable descriptor of a long-lived API key secret.
// Only the one-way hash of the raw key is stored; the raw key is shown once at creation.
type APIKey struct {
	ID         uuid.UUID  // Unique identifier (UUIDv7)
	OwnerID    string     // Identity that owns the key
	Name       string     // Human-readable label
	KeyHash    string     // SHA-256 (or HMAC-SHA256) hex digest of the raw key
	KeyPrefix  string     // Leading characters of the raw key, for display only
	Scopes     []string   // Granted scopes drawn from the registry
	IsActive   bool       // False once the key is revoked or rotated
	ExpiresAt  *time.Time // Optional expiration
	LastUsedAt *time.Time // Updated best-effort on successful verification
	CreatedAt  time.Time
}

// IsExpired reports whether the key has an expiration that is not after now.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// CreateAPIKeyInput contains the parameters for issuing a new API key.
type CreateAPIKeyInput struct {
	OwnerID   string
	Name      string
	Scopes    []string
	ExpiresAt *time.Time
}

// CreateAPIKeyOutput contains the result of issuing an API key.
// SECURITY: PlainKey is returned exactly once and is never persisted or logged.
type CreateAPIKeyOutput struct {
	ID        uuid.UUID
	PlainKey  string
	KeyPrefix string
	APIKey    *APIKey
}
