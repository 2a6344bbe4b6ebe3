package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/handler"
	"github.com/iliyamo/crm-backend/internal/middleware"
)

// Register wires every route of the API onto the Echo instance. Public
// endpoints live under /api and /api/auth; everything else passes the
// admission middleware, with role gates attached at group construction.
func Register(
	e *echo.Echo,
	svc *auth.Service,
	a *handler.AuthHandler,
	u *handler.UserHandler,
	contacts *handler.ContactHandler,
	rlCfg config.RateLimitConfig,
	rdb *redis.Client,
) {
	// Health check for load balancers; no auth, no rate limiting.
	e.GET("/api/health", handler.Health)

	// Credential endpoints: rate-limited per client IP, no admission gate
	// (login/refresh are how a session is obtained in the first place).
	authGroup := e.Group("/api/auth", middleware.RateLimit(rlCfg, rdb))
	authGroup.POST("/login", a.Login)
	authGroup.POST("/refresh", a.Refresh)

	// Logout and verify need a live access token but no specific role.
	authed := e.Group("/api/auth", middleware.Authenticate(svc))
	authed.POST("/logout", a.Logout)
	authed.GET("/verify", a.Verify)

	// User management. Listing and provisioning are admin-or-above; reading
	// and updating single users is gated in the handler (advisors may touch
	// only themselves); deletion is super-administrator only.
	users := e.Group("/api/users", middleware.Authenticate(svc))
	users.GET("", u.List, middleware.RequireAdmin)
	users.POST("", u.Create, middleware.RequireAdmin)
	users.GET("/:id", u.Get)
	users.PUT("/:id", u.Update)
	users.PUT("/:id/password", u.UpdatePassword)
	users.DELETE("/:id", u.Delete, middleware.RequireSuperAdmin)

	// Contacts: any authenticated staff member.
	cg := e.Group("/api/contacts", middleware.Authenticate(svc), middleware.RequireAdvisor)
	cg.GET("", contacts.List)
	cg.POST("", contacts.Create)
	cg.GET("/:id", contacts.Get)
	cg.PUT("/:id", contacts.Update)
	cg.DELETE("/:id", contacts.Delete)
}
