package edu_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-edu"
)

func TestClaimsContext(t *testing.T) {
	_, ok := edu.GetClaims(context.Background())
	assert.False(t, ok)

	claims := &edu.JWTClaims{UID: "user-1", UserRole: "student"}
	ctx := edu.WithClaimsContext(context.Background(), claims)

	got, ok := edu.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID())
}

func TestIdentityFromRouter(t *testing.T) {
	srv := edu.NewHTTPServer()
	r := srv.Router()

	r.Get("/locals", func(ctx router.Context) error {
		ctx.Locals(edu.DefaultContextKey, &edu.JWTClaims{UID: "user-1", UserRole: "instructor"})
		identity, ok := edu.IdentityFromRouter(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "user-1", identity.ID())
		assert.Equal(t, "instructor", identity.Role())
		return ctx.NoContent(http.StatusNoContent)
	})
	r.Get("/std-context", func(ctx router.Context) error {
		ctx.SetContext(edu.WithClaimsContext(ctx.Context(), &edu.JWTClaims{UID: "user-2"}))
		identity, ok := edu.IdentityFromRouter(ctx, "custom")
		require.True(t, ok)
		assert.Equal(t, "user-2", identity.ID())
		return ctx.NoContent(http.StatusNoContent)
	})
	r.Get("/anonymous", func(ctx router.Context) error {
		_, ok := edu.IdentityFromRouter(ctx, "")
		assert.False(t, ok)
		return ctx.NoContent(http.StatusNoContent)
	})

	for _, path := range []string{"/locals", "/std-context", "/anonymous"} {
		resp, err := srv.WrappedRouter().Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, path)
	}
}
