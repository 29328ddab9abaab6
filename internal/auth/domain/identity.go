package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Identity is the authenticated principal for a single request.
// It is built fresh for every request and never persisted.
type Identity struct {
	ID            string     // Opaque user identifier (API key owner or session user)
	AuthMode      AuthMode   // Which credential type resolved the identity
	GrantedScopes []string   // Scopes granted to the API key; empty for sessions
	KeyID         *uuid.UUID // API key record ID (nil for sessions)
}

// HasScope reports whether the identity is allowed to act with the given scope.
// Session identities are full-access principals.
func (i *Identity) HasScope(scope string) bool {
	if i.AuthMode == AuthModeSession {
		return true
	}
	return slices.Contains(i.GrantedScopes, scope)
}

// NewSessionIdentity builds the full-access identity for a resolved session user.
func NewSessionIdentity(userID string) *Identity {
	return &Identity{
		ID:       userID,
		AuthMode: AuthModeSession,
	}
}

// NewAPIKeyIdentity builds the scoped identity for a verified API key.
// The granted scopes are copied so handlers cannot mutate the stored record.
func NewAPIKeyIdentity(key *APIKey) *Identity {
	keyID := key.ID
	return &Identity{
		ID:            key.OwnerID,
		AuthMode:      AuthModeAPIKey,
		GrantedScopes: slices.Clone(key.Scopes),
		KeyID:         &keyID,
	}
}
