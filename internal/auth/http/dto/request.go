// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/httputil"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// CreateAPIKeyRequest contains the parameters for issuing a new API key.
type CreateAPIKeyRequest struct {
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Validate checks if the create API key request is valid.
// Expiration in the past is rejected by the use case, which owns the clock.
func (r *CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.Scopes,
			validation.Required,
			customValidation.RegisteredScopes,
		),
	)
}

// ToInput converts the request into the use case input for ownerID.
func (r *CreateAPIKeyRequest) ToInput(ownerID string) *authDomain.CreateAPIKeyInput {
	return &authDomain.CreateAPIKeyInput{
		OwnerID:   ownerID,
		Name:      r.Name,
		Scopes:    r.Scopes,
		ExpiresAt: r.ExpiresAt,
	}
}

// ListAPIKeysRequest contains the query parameters for listing API keys.
type ListAPIKeysRequest struct {
	httputil.Pagination
}
