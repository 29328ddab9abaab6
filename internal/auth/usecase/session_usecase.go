package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/auth/identity"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// sessionUseCase implements SessionUseCase on top of an identity provider.
type sessionUseCase struct {
	provider identity.Provider
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

// Verify resolves the session token. Concurrent calls for the same token share a
// single provider call, bounded by the configured timeout and detached from any
// one caller's cancellation.
func (s *sessionUseCase) Verify(ctx context.Context, rawToken string) (*authDomain.Identity, error) {
	resultCh := s.group.DoChan(rawToken, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.provider.ResolveSessionToken(callCtx, rawToken)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.Wrap(authDomain.ErrInvalidCredential, ctx.Err().Error())
	case result := <-resultCh:
		if result.Err != nil {
			s.logger.Debug("session token rejected", slog.Any("error", result.Err))
			return nil, authDomain.ErrInvalidCredential
		}

		user, _ := result.Val.(*identity.SessionUser)
		if user == nil || user.UserID == "" {
			return nil, authDomain.ErrInvalidCredential
		}

		return authDomain.NewSessionIdentity(user.UserID), nil
	}
}

// NewSessionUseCase creates a new SessionUseCase.
func NewSessionUseCase(provider identity.Provider, timeout time.Duration, logger *slog.Logger) SessionUseCase {
	return &sessionUseCase{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}
