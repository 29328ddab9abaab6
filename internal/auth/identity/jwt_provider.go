package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// sessionClaims are the access token claims issued by the identity provider.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTProvider resolves HS256-signed access tokens without a network round trip.
type JWTProvider struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTProvider creates a JWTProvider. Empty issuer or audience disables that check.
func NewJWTProvider(secret, issuer, audience string) *JWTProvider {
	return &JWTProvider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// ResolveSessionToken verifies the token signature, expiry and optional issuer and
// audience, and returns the subject as the user ID.
func (p *JWTProvider) ResolveSessionToken(ctx context.Context, token string) (*SessionUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		options = append(options, jwt.WithIssuer(p.issuer))
	}
	if p.audience != "" {
		options = append(options, jwt.WithAudience(p.audience))
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return p.secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrap(ErrInvalidToken, fmt.Sprintf("jwt verification failed: %v", err))
	}

	if claims.Subject == "" {
		return nil, apperrors.Wrap(ErrInvalidToken, "missing subject")
	}

	return &SessionUser{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}
