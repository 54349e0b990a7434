package middleware_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/internal/middleware"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authedRequest(token string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/tenants")
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	return ctx
}

func TestJWTAuth_ValidTokenPropagatesIdentity(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{
		"user_id":   "user-1",
		"tenant_id": "ten-1",
		"perms":     []interface{}{"tenants:read", "not a code!", "auth:sessions"},
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	ctx := authedRequest(token)

	var reached bool
	middleware.JWTAuth(testSecret, zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
		reached = true
	})(ctx)

	require.True(t, reached)
	assert.Equal(t, "user-1", string(ctx.Request.Header.Peek("X-User-ID")))
	assert.Equal(t, "ten-1", string(ctx.Request.Header.Peek("X-Tenant-ID")))

	granted, ok := ctx.UserValue("permissions").([]domain.PermissionCode)
	require.True(t, ok)
	require.Len(t, granted, 2, "unparseable entries are dropped")
	assert.Equal(t, "tenants:read", granted[0].String())
	assert.Equal(t, "auth:sessions", granted[1].String())
}

func TestJWTAuth_MissingToken(t *testing.T) {
	ctx := authedRequest("")

	var reached bool
	middleware.JWTAuth(testSecret, zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
		reached = true
	})(ctx)

	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestJWTAuth_WrongSignature(t *testing.T) {
	token := signedToken(t, "other-secret", jwt.MapClaims{"user_id": "user-1"})
	ctx := authedRequest(token)

	var reached bool
	middleware.JWTAuth(testSecret, zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
		reached = true
	})(ctx)

	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	ctx := authedRequest(token)

	var reached bool
	middleware.JWTAuth(testSecret, zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
		reached = true
	})(ctx)

	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestRequirePermission_CoveringCodePasses(t *testing.T) {
	// A bare resource grant covers every action beneath it.
	token := signedToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"perms":   []interface{}{"tenants"},
	})
	ctx := authedRequest(token)

	var reached bool
	chain := middleware.JWTAuth(testSecret, zap.NewNop())(
		middleware.RequirePermission("tenants:manage", zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
			reached = true
		}))
	chain(ctx)

	assert.True(t, reached)
}

func TestRequirePermission_Denied(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"perms":   []interface{}{"roles:read"},
	})
	ctx := authedRequest(token)

	var reached bool
	chain := middleware.JWTAuth(testSecret, zap.NewNop())(
		middleware.RequirePermission("tenants:manage", zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
			reached = true
		}))
	chain(ctx)

	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}

func TestRequirePermission_NoGrantsInContext(t *testing.T) {
	ctx := authedRequest("")

	var reached bool
	middleware.RequirePermission("tenants:read", zap.NewNop())(func(ctx *fasthttp.RequestCtx) {
		reached = true
	})(ctx)

	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}
