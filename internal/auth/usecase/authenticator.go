package usecase

import (
	"context"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
)

// authenticator dispatches a bearer credential to the matching verifier.
type authenticator struct {
	apiKeyPrefix   string
	apiKeyUseCase  APIKeyUseCase
	sessionUseCase SessionUseCase
}

// Authenticate classifies the header and verifies the credential. A missing or
// malformed header returns ErrInvalidCredential without touching any verifier.
func (a *authenticator) Authenticate(ctx context.Context, authHeader string) (*authDomain.Identity, error) {
	credential := authService.ResolveCredential(authHeader, a.apiKeyPrefix)

	switch credential.Kind {
	case authService.APIKeyCandidate:
		return a.apiKeyUseCase.Verify(ctx, credential.Value)
	case authService.SessionCandidate:
		return a.sessionUseCase.Verify(ctx, credential.Value)
	default:
		return nil, authDomain.ErrInvalidCredential
	}
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(
	apiKeyPrefix string,
	apiKeyUseCase APIKeyUseCase,
	sessionUseCase SessionUseCase,
) Authenticator {
	return &authenticator{
		apiKeyPrefix:   apiKeyPrefix,
		apiKeyUseCase:  apiKeyUseCase,
		sessionUseCase: sessionUseCase,
	}
}
