package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/allisson/gatekeeper/internal/errors"
)

// InsufficientScopeError is returned when an API key identity lacks required scopes.
// Scope names are not secret, so both lists are safe to surface to the client.
type InsufficientScopeError struct {
	Required []string
	Missing  []string
}

func (e *InsufficientScopeError) Error() string {
	return fmt.Sprintf("insufficient scope: missing %s", strings.Join(e.Missing, ","))
}

// Unwrap makes the error match errors.ErrForbidden.
func (e *InsufficientScopeError) Unwrap() error {
	return errors.ErrForbidden
}

// Authorize checks the identity against the scopes a route requires.
//
// Rules:
//   - No required scopes: always allowed
//   - Session identities: always allowed (implicit full access)
//   - API key identities: allowed iff every required scope is granted
//
// On denial it returns *InsufficientScopeError listing the missing scopes in the
// order they were required, without duplicates.
func Authorize(identity *Identity, required []string) error {
	if len(required) == 0 {
		return nil
	}
	if identity == nil {
		return ErrInvalidCredential
	}
	if identity.AuthMode == AuthModeSession {
		return nil
	}

	missing := MissingScopes(identity.GrantedScopes, required)
	if len(missing) == 0 {
		return nil
	}

	return &InsufficientScopeError{
		Required: slices.Clone(required),
		Missing:  missing,
	}
}

// MissingScopes returns the required scopes absent from granted.
func MissingScopes(granted, required []string) []string {
	var missing []string
	for _, scope := range required {
		if slices.Contains(granted, scope) || slices.Contains(missing, scope) {
			continue
		}
		missing = append(missing, scope)
	}
	return missing
}
