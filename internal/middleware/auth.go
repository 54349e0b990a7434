package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
)

const (
	headerUserID   = "X-User-ID"
	headerTenantID = "X-Tenant-ID"

	permissionsKey = "permissions"
)

// JWTAuth validates the bearer token and propagates the caller's identity
// and granted permission codes to downstream handlers.
func JWTAuth(secret string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if userID, ok := claims["user_id"].(string); ok {
					ctx.Request.Header.Set(headerUserID, userID)
				}
				if tenantID, ok := claims["tenant_id"].(string); ok {
					ctx.Request.Header.Set(headerTenantID, tenantID)
				}
				ctx.SetUserValue(permissionsKey, grantedCodes(claims))
			}

			next(ctx)
		}
	}
}

// RequirePermission guards a route with a permission code. The caller passes
// when any code in its token covers the required one, honoring the
// resource:action:scope hierarchy.
func RequirePermission(code string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	required := domain.MustPermissionCode(code)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			granted, _ := ctx.UserValue(permissionsKey).([]domain.PermissionCode)
			for _, have := range granted {
				if have.Covers(required) {
					next(ctx)
					return
				}
			}

			logger.Warn("permission denied",
				zap.String("required", required.String()),
				zap.ByteString("path", ctx.Path()))
			ctx.SetStatusCode(fasthttp.StatusForbidden)
		}
	}
}

func grantedCodes(claims jwt.MapClaims) []domain.PermissionCode {
	raw, ok := claims["perms"].([]interface{})
	if !ok {
		return nil
	}
	codes := make([]domain.PermissionCode, 0, len(raw))
	for _, entry := range raw {
		value, ok := entry.(string)
		if !ok {
			continue
		}
		code, err := domain.ParsePermissionCode(value)
		if err != nil {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
