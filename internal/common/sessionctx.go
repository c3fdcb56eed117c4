package common

import "context"

type ctxKey string

const (
	userIDKey    ctxKey = "session/user-id"
	cartOwnerKey ctxKey = "session/cart-owner"
)

// WithUserID stores the authenticated user identifier on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithCartOwner stores the cart owner key (user id or anonymous session id).
func WithCartOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, cartOwnerKey, owner)
}

// CartOwner extracts the cart owner key from the context if present.
func CartOwner(ctx context.Context) (string, bool) {
	v := ctx.Value(cartOwnerKey)
	if v == nil {
		return "", false
	}
	owner, ok := v.(string)
	return owner, ok
}
