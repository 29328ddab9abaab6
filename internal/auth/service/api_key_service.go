package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// displayPrefixLength is how many leading characters of a key are kept for display.
const displayPrefixLength = 8

// apiKeyService implements APIKeyService using SHA-256, or HMAC-SHA256 when a pepper is set.
type apiKeyService struct {
	prefix string
	pepper []byte
}

// GenerateKey creates a new API key from 32 random bytes (256 bits) encoded as
// unpadded base64url and prefixed with the API key marker.
func (s *apiKeyService) GenerateKey() (plainKey string, keyHash string, keyPrefix string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to generate random api key")
	}

	plainKey = s.prefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	keyHash = s.HashKey(plainKey)
	keyPrefix = plainKey[:displayPrefixLength]

	return plainKey, keyHash, keyPrefix, nil
}

// HashKey returns the hex-encoded digest of the plain key.
func (s *apiKeyService) HashKey(plainKey string) string {
	if len(s.pepper) == 0 {
		hash := sha256.Sum256([]byte(plainKey))
		return hex.EncodeToString(hash[:])
	}

	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(plainKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// Prefix returns the API key marker.
func (s *apiKeyService) Prefix() string {
	return s.prefix
}

// NewAPIKeyService creates a new APIKeyService. An empty pepper selects plain SHA-256.
func NewAPIKeyService(prefix string, pepper string) APIKeyService {
	return &apiKeyService{
		prefix: prefix,
		pepper: []byte(pepper),
	}
}
