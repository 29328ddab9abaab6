package dto

import (
	"time"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

// APIKeyResponse represents an API key in API responses. The key hash is never exposed.
type APIKeyResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	Scopes     []string   `json:"scopes"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MapAPIKeyToResponse converts a domain API key to an API response.
func MapAPIKeyToResponse(apiKey *authDomain.APIKey) APIKeyResponse {
	scopes := apiKey.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return APIKeyResponse{
		ID:         apiKey.ID.String(),
		Name:       apiKey.Name,
		KeyPrefix:  apiKey.KeyPrefix,
		Scopes:     scopes,
		IsActive:   apiKey.IsActive,
		ExpiresAt:  apiKey.ExpiresAt,
		LastUsedAt: apiKey.LastUsedAt,
		CreatedAt:  apiKey.CreatedAt,
	}
}

// MapAPIKeysToResponse converts a slice of domain API keys. Never returns nil.
func MapAPIKeysToResponse(apiKeys []*authDomain.APIKey) []APIKeyResponse {
	responses := make([]APIKeyResponse, 0, len(apiKeys))
	for _, apiKey := range apiKeys {
		responses = append(responses, MapAPIKeyToResponse(apiKey))
	}
	return responses
}

// CreateAPIKeyResponse contains a newly issued key.
// SECURITY: Key is only returned once and must be saved by the caller.
type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"` //nolint:gosec // returned once on creation
}

// MapCreateOutputToResponse converts the issuance result to an API response.
func MapCreateOutputToResponse(output *authDomain.CreateAPIKeyOutput) CreateAPIKeyResponse {
	return CreateAPIKeyResponse{
		APIKeyResponse: MapAPIKeyToResponse(output.APIKey),
		Key:            output.PlainKey,
	}
}

// MeResponse describes the identity that authenticated the request.
type MeResponse struct {
	ID       string   `json:"id"`
	AuthMode string   `json:"auth_mode"`
	Scopes   []string `json:"scopes"`
	KeyID    *string  `json:"key_id,omitempty"`
}

// MapIdentityToResponse converts an identity to an API response.
func MapIdentityToResponse(identity *authDomain.Identity) MeResponse {
	response := MeResponse{
		ID:       identity.ID,
		AuthMode: string(identity.AuthMode),
		Scopes:   identity.GrantedScopes,
	}
	if response.Scopes == nil {
		response.Scopes = []string{}
	}
	if identity.KeyID != nil {
		keyID := identity.KeyID.String()
		response.KeyID = &keyID
	}
	return response
}
