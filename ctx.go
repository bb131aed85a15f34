package edu

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is the router locals key holding verified claims
const DefaultContextKey = "user"

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims stored by the JWT middleware
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// IdentityFromRouter returns the identity of the authenticated caller.
func IdentityFromRouter(ctx router.Context, key string) (Identity, bool) {
	claims, ok := GetRouterClaims(ctx, key)
	if !ok {
		if claims, ok = GetClaims(ctx.Context()); !ok {
			return nil, false
		}
	}
	return IdentityFromClaims(claims), true
}
