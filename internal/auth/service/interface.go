// Package service provides technical services for authentication operations.
//
// This package implements API key generation and hashing, and the credential
// resolver that classifies bearer tokens before any cryptographic work happens.
package service

// APIKeyService defines operations for API key generation and hashing.
// Hashes must be deterministic so records can be looked up by hash.
type APIKeyService interface {
	// GenerateKey creates a new cryptographically secure API key carrying the
	// configured prefix. Returns the plain key (shown once to the caller), its
	// hash (stored) and the display prefix.
	GenerateKey() (plainKey string, keyHash string, keyPrefix string, err error)

	// HashKey computes the deterministic one-way hash of a plain key.
	HashKey(plainKey string) string

	// Prefix returns the literal marker that identifies API keys.
	Prefix() string
}
