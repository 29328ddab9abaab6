// Package domain defines authentication and authorization domain models.
// Implements scope-based access control for API keys and session identities.
package domain

import "slices"

// AuthMode identifies which credential type authenticated a request.
type AuthMode string

const (
	// AuthModeAPIKey marks identities resolved from a hashed API key.
	AuthModeAPIKey AuthMode = "api_key"

	// AuthModeSession marks identities resolved by the external identity provider.
	AuthModeSession AuthMode = "session"
)

// DefaultAPIKeyPrefix is the literal marker that classifies a bearer token as an API key.
const DefaultAPIKeyPrefix = "zm_"

// Registered scopes. API keys can only be issued with scopes from this list.
const (
	ScopeTasksRead       = "tasks.read"
	ScopeTasksWrite      = "tasks.write"
	ScopeMemoriesRead    = "memories.read"
	ScopeMemoriesWrite   = "memories.write"
	ScopeActivitiesRead  = "activities.read"
	ScopeActivitiesWrite = "activities.write"
	ScopeCategoriesRead  = "categories.read"
	ScopeCategoriesWrite = "categories.write"
	ScopeAPIKeysRead     = "api_keys.read"
	ScopeAPIKeysWrite    = "api_keys.write"
)

// Scopes is the fixed scope registry in display order.
var Scopes = []string{
	ScopeTasksRead,
	ScopeTasksWrite,
	ScopeMemoriesRead,
	ScopeMemoriesWrite,
	ScopeActivitiesRead,
	ScopeActivitiesWrite,
	ScopeCategoriesRead,
	ScopeCategoriesWrite,
	ScopeAPIKeysRead,
	ScopeAPIKeysWrite,
}

// IsRegisteredScope reports whether scope belongs to the registry.
func IsRegisteredScope(scope string) bool {
	return slices.Contains(Scopes, scope)
}
