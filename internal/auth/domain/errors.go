package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Authentication and authorization errors.
//
// Revoked and expired credentials wrap ErrInvalidCredential so every credential
// failure is the same kind to callers; the distinction only survives in logs.
var (
	// ErrInvalidCredential indicates the credential is missing, malformed or unknown.
	ErrInvalidCredential = errors.Wrap(errors.ErrUnauthorized, "invalid credential")

	// ErrRevokedCredential indicates the API key exists but is no longer active.
	ErrRevokedCredential = errors.Wrap(ErrInvalidCredential, "revoked credential")

	// ErrExpiredCredential indicates the API key expiration has passed.
	ErrExpiredCredential = errors.Wrap(ErrInvalidCredential, "expired credential")

	// ErrAPIKeyNotFound indicates an API key record was not found.
	ErrAPIKeyNotFound = errors.Wrap(errors.ErrNotFound, "api key not found")

	// ErrAPIKeyInactive indicates a lifecycle operation needs an active key.
	ErrAPIKeyInactive = errors.Wrap(errors.ErrInvalidInput, "api key is not active")
)
