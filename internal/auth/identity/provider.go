// Package identity provides session token resolution against an external identity provider.
//
// Two providers are available: JWTProvider verifies signed access tokens locally,
// HTTPProvider asks the provider's user endpoint to resolve the token.
package identity

import (
	"context"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// ErrInvalidToken is returned when a provider rejects a session token.
var ErrInvalidToken = apperrors.New("invalid session token")

// SessionUser is the user a session token resolves to.
type SessionUser struct {
	UserID string
	Email  string
}

// Provider resolves opaque session tokens into users.
type Provider interface {
	ResolveSessionToken(ctx context.Context, token string) (*SessionUser, error)
}
