package auth

import (
	"context"

	"github.com/tripshare/backend/internal/domain"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying who.
func WithIdentity(ctx context.Context, who domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, who)
}

// IdentityFrom returns the caller's identity, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *domain.Identity {
	who, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok {
		return nil
	}
	return &who
}
