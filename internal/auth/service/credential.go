package service

import (
	"strings"
)

// CredentialKind classifies the bearer credential presented by a request.
type CredentialKind int

const (
	// NoCredential means the Authorization header is absent or not a bearer token.
	NoCredential CredentialKind = iota
	// APIKeyCandidate means the token carries the API key prefix.
	APIKeyCandidate
	// SessionCandidate means any other bearer token.
	SessionCandidate
)

// String returns a log-friendly name for the credential kind.
func (k CredentialKind) String() string {
	switch k {
	case APIKeyCandidate:
		return "api_key"
	case SessionCandidate:
		return "session"
	default:
		return "none"
	}
}

// Credential is the classified bearer token.
type Credential struct {
	Kind  CredentialKind
	Value string
}

const bearerPrefix = "bearer "

// ResolveCredential classifies the raw Authorization header value.
//
// The header must be "Bearer <token>" (scheme matched case-insensitively) with a
// non-empty token, otherwise NoCredential is returned. Tokens starting with the
// API key prefix are API key candidates; every other token is a session candidate.
// Only string inspection happens here, so foreign tokens never reach hashing.
func ResolveCredential(authHeader string, apiKeyPrefix string) Credential {
	if len(authHeader) <= len(bearerPrefix) ||
		!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return Credential{Kind: NoCredential}
	}

	token := authHeader[len(bearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return Credential{Kind: NoCredential}
	}

	if apiKeyPrefix != "" && strings.HasPrefix(token, apiKeyPrefix) {
		return Credential{Kind: APIKeyCandidate, Value: token}
	}

	return Credential{Kind: SessionCandidate, Value: token}
}
