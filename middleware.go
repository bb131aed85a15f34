package edu

import (
	"context"
	"errors"

	"github.com/goliatone/go-edu/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// OwnerResolver returns the account id owning the resource addressed by
// the request.
type OwnerResolver func(ctx router.Context) (string, error)

type jwtwareValidator struct {
	validator TokenValidator
}

func (v jwtwareValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewJWTMiddleware verifies bearer tokens with validator and stores the
// claims under cfg.GetContextKey(). Failures are returned to the caller
// as ErrInvalidToken or the validator error.
func NewJWTMiddleware(cfg Config, validator TokenValidator) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		TokenValidator: jwtwareValidator{validator: validator},
		ErrorHandler: func(ctx router.Context, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return ErrInvalidToken
			}
			return err
		},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	})
}

// RequireRoles rejects requests whose identity holds none of roles.
func RequireRoles(contextKey string, roles ...UserRole) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, ok := IdentityFromRouter(ctx, contextKey)
			if !ok {
				return ErrInvalidToken
			}
			if err := Authorize(identity, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// RequireSelfOrRoles lets the resource owner through, and otherwise
// falls back to the role check.
func RequireSelfOrRoles(contextKey string, owner OwnerResolver, roles ...UserRole) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, ok := IdentityFromRouter(ctx, contextKey)
			if !ok {
				return ErrInvalidToken
			}
			ownerID, err := owner(ctx)
			if err != nil {
				return err
			}
			if err := AuthorizeSelfOrRole(identity, ownerID, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// RenderErrors hands any error returned by the wrapped handler to
// handler so it reaches the client as a response.
func RenderErrors(handler router.ErrorHandler) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if err := next(ctx); err != nil {
				return handler(ctx, err)
			}
			return nil
		}
	}
}

// withMiddleware wraps handler so that mw[0] runs first.
func withMiddleware(handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}
