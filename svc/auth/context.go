// Package auth carries the authenticated identity between the middleware
// that verifies tokens and the modules that serve the request.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the caller authenticated by an access or challenge token.
type Identity struct {
	UserID  uuid.UUID
	TokenID string
}

type identityContextKey struct{}

// SetIdentity stores id in ctx for the rest of the middleware chain.
func SetIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the stored identity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok && id.UserID != uuid.Nil
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}
