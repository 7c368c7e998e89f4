// Package httpserver exposes the application services over a chi router.
package httpserver

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/model"
)

type ctxKey string

const identityKey ctxKey = "counselink.identity"

// Identity is the authenticated caller derived from the session token.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
}

// WithIdentity stores the authenticated identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx fetches the identity from the context.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
