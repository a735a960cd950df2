package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/brand-cms/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/brand-cms/internal/middleware" // import middleware for session and builder-token authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, used by
// load balancers and monitoring systems to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the first-party session endpoints and the builder
// token mint. Unauthenticated operations (register, login, refresh, logout)
// live under /v1/auth; /v1/me and /v1/auth/token require a valid session
// access token, the latter because only a logged-in dashboard user may mint
// capability tokens for their brand.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessionSecret string) {
	// Operations that create or exchange session tokens; no session required.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	session := middleware.SessionAuth(sessionSecret)

	// The token mint sits under /v1/auth for discoverability but carries the
	// session middleware per-route: it is the bridge from the dashboard
	// session world into the builder capability world.
	g.POST("/token", a.BuilderToken, session)

	auth := e.Group("/v1")
	auth.Use(session)
	auth.GET("/me", a.Me)
}

// RegisterContent registers the content resource APIs. The read surface
// (listings) is gated by the dashboard session and filters by the
// brand_id query parameter; the write surface requires a builder capability
// token whose brand claim is cross-checked against every target row, with
// per-resource write scopes on top.
func RegisterContent(e *echo.Echo, p *handler.PageHandler, l *handler.LayoutHandler, m *handler.MenuHandler, cfgSessionSecret, cfgBuilderSecret string) {
	// Dashboard read surface.
	reads := e.Group("/v1")
	reads.Use(middleware.SessionAuth(cfgSessionSecret))
	reads.GET("/pages", p.ListPages)
	reads.GET("/layouts", l.ListLayouts)
	reads.GET("/menus", m.ListMenus)
	reads.GET("/menus/:id/items", m.MenuItems)

	// Builder write surface.
	writes := e.Group("/v1")
	writes.Use(middleware.BuilderAuth(cfgBuilderSecret))
	writes.POST("/pages/saveDraft", p.SaveDraft, middleware.RequireScope("pages:write"))
	writes.POST("/pages/:id/publish", p.Publish, middleware.RequireScope("pages:write"))
	writes.POST("/pages/:id/duplicate", p.DuplicatePage, middleware.RequireScope("pages:write"))
	writes.DELETE("/pages/:id", p.DeletePage, middleware.RequireScope("pages:write"))
	writes.POST("/layouts/save", l.SaveLayout, middleware.RequireScope("layouts:write"))
	writes.POST("/menus/save", m.SaveMenu, middleware.RequireScope("menus:write"))
}

// RegisterPublic registers the unauthenticated preview endpoint. The cache
// middleware (a pass-through when Redis is absent) wraps only this route:
// published snapshots are immutable between publishes and safe to cache.
func RegisterPublic(e *echo.Echo, pub *handler.PublicHandler, cacheMW echo.MiddlewareFunc) {
	e.GET("/v1/preview/:brandSlug/:pageSlug", pub.PreviewPage, cacheMW)
}
