package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shishobooks/catalog/pkg/auth"
	"github.com/shishobooks/catalog/pkg/authors"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/metrics"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
	}))
	if cfg.RateLimitPerSecond > 0 {
		e.Use(rateLimiter(cfg))
	}

	health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	authService := auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
	authMiddleware := auth.NewMiddleware(authService)
	auth.RegisterRoutes(e, authService)

	registerCatalogRoutes(e, db, cfg, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerCatalogRoutes registers the author and book routes. Reads are open
// to everyone; the groups only identify the caller so writes can require one.
func registerCatalogRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	// Authors routes
	authorsGroup := e.Group("/authors")
	authorsGroup.Use(authMiddleware.AuthenticateOptional)
	authors.RegisterRoutesWithGroup(authorsGroup, db, cfg, authMiddleware)

	// Books routes
	booksGroup := e.Group("/books")
	booksGroup.Use(authMiddleware.AuthenticateOptional)
	books.RegisterRoutesWithGroup(booksGroup, db, cfg, authMiddleware)
}

// rateLimiter limits each client IP to a token bucket refilled at
// RateLimitPerSecond with room for RateLimitBurst requests.
func rateLimiter(cfg *config.Config) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RateLimitPerSecond),
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return errors.WithStack(err)
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return errcodes.TooManyRequests()
		},
	})
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
