// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/farmland-registry/internal/config"
	"github.com/iliyamo/farmland-registry/internal/handler"
	"github.com/iliyamo/farmland-registry/internal/middleware"
	"github.com/iliyamo/farmland-registry/internal/model"
	"github.com/iliyamo/farmland-registry/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints under /auth.  Register,
// login, refresh and logout run without a session; everything else goes
// through the cookie session middleware, and the administration
// endpoints additionally require the admin role.  Role checks read the
// freshly loaded assignments, so a revocation bites on the next request.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, r *handler.RoleHandler, users *repository.UserRepo, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register/", a.Register)
	g.POST("/login/", a.Login)
	g.POST("/refresh-token/", a.Refresh)
	g.POST("/logout/", a.Logout)

	session := g.Group("", middleware.Session(jwtSecret, users))
	session.GET("/me/", a.Me)

	admin := g.Group("", middleware.Session(jwtSecret, users), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/all_users/", a.AllUsers)
	admin.POST("/roles/", r.CreateRole)
	admin.DELETE("/roles/:id", r.DeleteRole)
	admin.POST("/:user_id/roles", r.AssignRole)
	admin.DELETE("/:user_id/roles/:role_name", r.RevokeRole)
}

// RegisterFarmers registers the farmer CRUD endpoints.  Reads need any
// authenticated session; writes need the farmer role, except deletion
// which is reserved for admins.
func RegisterFarmers(e *echo.Echo, f *handler.FarmerHandler, users *repository.UserRepo, jwtSecret string, browse ...echo.MiddlewareFunc) {
	g := e.Group("/farmers", middleware.Session(jwtSecret, users))

	g.GET("/", f.List, browse...)
	g.GET("/:id", f.Get, browse...)

	farmer := g.Group("", middleware.RequireRole(model.RoleFarmer))
	farmer.POST("/add/", f.Create)
	farmer.PUT("/update_description/", f.Update)

	admin := g.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.DELETE("/delete/:id", f.Delete)
}

// RegisterFields registers the field CRUD endpoints with the same access
// split as farmers: session for reads, farmer role for writes.
func RegisterFields(e *echo.Echo, f *handler.FieldHandler, users *repository.UserRepo, jwtSecret string, browse ...echo.MiddlewareFunc) {
	g := e.Group("/fields", middleware.Session(jwtSecret, users))

	g.GET("/", f.List, browse...)
	g.GET("/:id", f.Get, browse...)

	farmer := g.Group("", middleware.RequireRole(model.RoleFarmer))
	farmer.POST("/add/", f.Create)
	farmer.PUT("/update/:id", f.Update)
	farmer.DELETE("/delete/:id", f.Delete)
}

// BrowseMiddleware builds the optional read-path middleware chain: a
// Redis token-bucket limiter plus a short-TTL response cache.  With no
// Redis client both collapse to pass-through.
func BrowseMiddleware(rdb *redis.Client) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}
}
