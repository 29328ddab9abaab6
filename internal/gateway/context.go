package gateway

import (
	"context"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

type contextKey int

const (
	identityKey contextKey = iota
	inputKey
)

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity *authDomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity returns the identity attached by the pipeline.
// It reports false on routes that do not require authentication.
func GetIdentity(ctx context.Context) (*authDomain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*authDomain.Identity)
	return identity, ok && identity != nil
}

// WithInput returns a copy of ctx carrying the validated request input.
func WithInput(ctx context.Context, input any) context.Context {
	return context.WithValue(ctx, inputKey, input)
}

// GetInput returns the validated input as T. It reports false when the route has
// no schema or the schema produced a different type.
func GetInput[T any](ctx context.Context) (T, bool) {
	input, ok := ctx.Value(inputKey).(T)
	return input, ok
}
