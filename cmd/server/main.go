package main // Entry point package

import (
	"log"      // Logging library
	"net/http" // Status codes for the fallback error handler

	"github.com/labstack/echo/v4"            // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's built-in middleware (CORS)

	"github.com/iliyamo/brand-cms/internal/config"     // Internal config loader
	"github.com/iliyamo/brand-cms/internal/database"   // MySQL pool constructor
	"github.com/iliyamo/brand-cms/internal/handler"    // HTTP handlers
	"github.com/iliyamo/brand-cms/internal/middleware" // Cache and rate-limit middleware
	"github.com/iliyamo/brand-cms/internal/queue"      // Publish-event consumer
	"github.com/iliyamo/brand-cms/internal/repository" // Data access layer
	"github.com/iliyamo/brand-cms/internal/router"     // Route registration
)

func main() {
	cfg := config.Load() // Load environment config; fatal on missing secrets

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables response caching and rate
	// limiting, nothing else.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true

	// Every endpoint answers OPTIONS with permissive CORS headers: the
	// external builder and the dashboard run on their own origins.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Normalize every error (including unknown routes) to {"error": ...} so
	// clients parse one shape everywhere.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "internal error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		} else {
			c.Logger().Error(err)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, echo.Map{"error": msg})
		}
	}

	// Repositories
	brands := repository.NewBrandRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	pages := repository.NewPageRepo(db)
	layouts := repository.NewLayoutRepo(db)
	menus := repository.NewMenuRepo(db)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, brands, tokens)
	pageH := handler.NewPageHandler(pages, brands)
	layoutH := handler.NewLayoutHandler(layouts)
	menuH := handler.NewMenuHandler(menus)
	publicH := handler.NewPublicHandler(pages, brands)

	// Routes
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.SessionSecret)
	router.RegisterContent(e, pageH, layoutH, menuH, cfg.SessionSecret, cfg.BuilderSecret)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Consume page.published events in the background; the loop reconnects
	// on broker failures and never brings the server down.
	go func() {
		if err := queue.StartPublishConsumer(); err != nil {
			log.Printf("publish consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
