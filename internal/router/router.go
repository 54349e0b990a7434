package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/idforge/backend/api/handler"
)

type Handlers struct {
	Tenant     *apiHandler.TenantHandler
	Permission *apiHandler.PermissionHandler
	Role       *apiHandler.RoleHandler
	Auth       *apiHandler.AuthHandler
	Health     *apiHandler.HealthHandler
}

// Middleware wraps a route with authentication, and optionally with a
// required permission code.
type Middleware struct {
	Authenticate func(fasthttp.RequestHandler) fasthttp.RequestHandler
	Require      func(code string) func(fasthttp.RequestHandler) fasthttp.RequestHandler
}

func New(handlers Handlers, mw Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	guard := func(code string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if mw.Require != nil {
			next = mw.Require(code)(next)
		}
		if mw.Authenticate != nil {
			next = mw.Authenticate(next)
		}
		return next
	}

	// Tenant administration
	r.POST("/api/v1/tenants", guard("tenants:create", handlers.Tenant.Create))
	r.GET("/api/v1/tenants", guard("tenants:read", handlers.Tenant.List))
	r.GET("/api/v1/tenants/{id}", guard("tenants:read", handlers.Tenant.Get))
	r.GET("/api/v1/tenants/slug/{slug}", guard("tenants:read", handlers.Tenant.GetBySlug))
	r.POST("/api/v1/tenants/{id}/activate", guard("tenants:manage", handlers.Tenant.Activate))
	r.POST("/api/v1/tenants/{id}/suspend", guard("tenants:manage", handlers.Tenant.Suspend))
	r.POST("/api/v1/tenants/{id}/disable", guard("tenants:manage", handlers.Tenant.Disable))
	r.POST("/api/v1/tenants/{id}/users", guard("tenants:members", handlers.Tenant.AddUser))
	r.DELETE("/api/v1/tenants/{id}/users/{member_id}", guard("tenants:members", handlers.Tenant.RemoveUser))
	r.POST("/api/v1/tenants/{id}/organizations", guard("tenants:members", handlers.Tenant.AddOrganization))
	r.DELETE("/api/v1/tenants/{id}/organizations/{member_id}", guard("tenants:members", handlers.Tenant.RemoveOrganization))
	r.PUT("/api/v1/tenants/{id}/settings", guard("tenants:manage", handlers.Tenant.UpdateSettings))

	// Permission catalog
	r.POST("/api/v1/permissions", guard("permissions:create", handlers.Permission.Create))
	r.GET("/api/v1/permissions", guard("permissions:read", handlers.Permission.List))
	r.GET("/api/v1/permissions/{id}", guard("permissions:read", handlers.Permission.Get))
	r.GET("/api/v1/permissions/code/{code}", guard("permissions:read", handlers.Permission.GetByCode))
	r.POST("/api/v1/permissions/{id}/activate", guard("permissions:manage", handlers.Permission.Activate))
	r.POST("/api/v1/permissions/{id}/suspend", guard("permissions:manage", handlers.Permission.Suspend))
	r.POST("/api/v1/permissions/{id}/disable", guard("permissions:manage", handlers.Permission.Disable))
	r.POST("/api/v1/permissions/{id}/roles", guard("permissions:manage", handlers.Permission.AssignToRole))
	r.DELETE("/api/v1/permissions/{id}/roles/{role_id}", guard("permissions:manage", handlers.Permission.RemoveFromRole))
	r.PUT("/api/v1/permissions/{id}/settings", guard("permissions:manage", handlers.Permission.UpdateSettings))

	// Role catalog
	r.POST("/api/v1/roles", guard("roles:create", handlers.Role.Create))
	r.GET("/api/v1/roles", guard("roles:read", handlers.Role.List))
	r.GET("/api/v1/roles/{id}", guard("roles:read", handlers.Role.Get))
	r.POST("/api/v1/roles/{id}/permissions", guard("roles:manage", handlers.Role.GrantPermission))
	r.DELETE("/api/v1/roles/{id}/permissions/{code}", guard("roles:manage", handlers.Role.RevokePermission))
	r.PUT("/api/v1/roles/{id}/settings", guard("roles:manage", handlers.Role.UpdateSettings))

	// Auth accounts and sessions
	r.POST("/api/v1/auth/accounts", guard("auth:create", handlers.Auth.CreateAccount))
	r.GET("/api/v1/auth/accounts/{id}", guard("auth:read", handlers.Auth.GetAccount))
	r.POST("/api/v1/auth/accounts/{id}/sessions", guard("auth:sessions", handlers.Auth.StartSession))
	r.GET("/api/v1/auth/accounts/{id}/sessions/{session_id}", guard("auth:read", handlers.Auth.GetSession))
	r.PATCH("/api/v1/auth/accounts/{id}/sessions/{session_id}", guard("auth:sessions", handlers.Auth.ExtendSession))
	r.DELETE("/api/v1/auth/accounts/{id}/sessions/{session_id}", guard("auth:sessions", handlers.Auth.RevokeSession))
	r.POST("/api/v1/auth/accounts/{id}/failed-attempts", guard("auth:manage", handlers.Auth.RecordFailedAttempt))
	r.POST("/api/v1/auth/accounts/{id}/activate", guard("auth:manage", handlers.Auth.Activate))
	r.POST("/api/v1/auth/accounts/{id}/suspend", guard("auth:manage", handlers.Auth.Suspend))
	r.POST("/api/v1/auth/accounts/{id}/disable", guard("auth:manage", handlers.Auth.Disable))
	r.POST("/api/v1/auth/accounts/{id}/expire", guard("auth:manage", handlers.Auth.Expire))
	r.PUT("/api/v1/auth/accounts/{id}/settings", guard("auth:manage", handlers.Auth.UpdateSettings))

	return r
}
