package httpx

import "context"

type ctxKey struct{}

// Identity is the authenticated caller resolved by the session middleware.
// It always reflects live account state, never just token claims.
type Identity struct {
	UserID   string
	Email    string
	Nickname string
}

// ContextWithIdentity attaches an authenticated identity to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the authenticated identity, if any.
// Handlers that require authentication must check the bool.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
