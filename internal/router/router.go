package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/benwyw/botboard/internal/handler"
	"github.com/benwyw/botboard/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints under /auth. Login may
// carry a rate-limit middleware (Redis token bucket) to slow down
// credential stuffing; pass nil to disable. The protected /v1/me probe
// demonstrates access token validation.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	if loginLimiter != nil {
		g.POST("/login", a.Login, loginLimiter)
	} else {
		g.POST("/login", a.Login)
	}
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/logout-all", a.LogoutAll)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("USER", "ADMIN"))
	auth.GET("/me", a.Me)
}

// RegisterContent registers the dashboard content endpoints under
// /content, optionally wrapped in the Redis response cache.
func RegisterContent(e *echo.Echo, ct *handler.ContentHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/content")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/daily-tip", ct.DailyTip)
	g.GET("/quote", ct.Quote)
	g.GET("/changelog", ct.Changelog)
	g.GET("/trending", ct.Trending)
	g.GET("/activity", ct.Activity)
	g.GET("/stats", ct.Stats)
}

// RegisterMisc registers the small informational endpoints under /misc.
func RegisterMisc(e *echo.Echo, m *handler.MiscHandler) {
	g := e.Group("/misc")
	g.GET("/title", m.Title)
	g.GET("/userBase", m.UserBase)
}

// RegisterAdmin registers the operator surface under /admin. Every
// route requires a valid access token with the ADMIN role.
func RegisterAdmin(e *echo.Echo, ad *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))
	g.POST("/users", ad.CreateUser)
	g.DELETE("/users/:username", ad.DeleteUser)
	g.POST("/tokens/purge", ad.PurgeTokens)
}
