// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"slices"
	"strings"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
// The original error stays in the chain so field details survive.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// RegisteredScopes validates that every element of a []string is a registered scope
// and that no scope is listed twice.
var RegisteredScopes = validation.By(func(value any) error {
	scopes, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_scopes_type", "must be a list of strings")
	}

	seen := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if !authDomain.IsRegisteredScope(scope) {
			return validation.NewError("validation_scope_unknown", "unknown scope "+scope)
		}
		if slices.Contains(seen, scope) {
			return validation.NewError("validation_scope_duplicate", "duplicate scope "+scope)
		}
		seen = append(seen, scope)
	}
	return nil
})
