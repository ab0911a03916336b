package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/auth"
	"github.com/shishobooks/catalog/pkg/authors"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/query"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// The group is expected to run auth.Middleware.AuthenticateOptional so that
// writes can be gated with RequireUser.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService:     NewService(db),
		authorService:   authors.NewService(db),
		paginator:       query.NewPaginator(cfg.StandardPagination),
		searchPaginator: query.NewPaginator(cfg.LargePagination),
		recentYears:     cfg.RecentBooksDefaultYears,
	}

	g.GET("", h.list)
	g.POST("", h.create, authMiddleware.RequireUser)
	g.GET("/recent", h.recent)
	g.GET("/by_genre", h.byGenre)
	g.GET("/in_stock", h.inStock)
	g.GET("/price_range", h.priceRange)
	g.GET("/search", h.search)
	g.GET("/:id", h.retrieve)
	g.PUT("/:id", h.replace, authMiddleware.RequireUser)
	g.PATCH("/:id", h.update, authMiddleware.RequireUser)
	g.DELETE("/:id", h.delete, authMiddleware.RequireUser)
}
