package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/auth"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/query"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers author routes on a pre-configured group.
// The group is expected to run auth.Middleware.AuthenticateOptional so that
// writes can be gated with RequireUser.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	h := &handler{
		authorService:  NewService(db),
		paginator:      query.NewPaginator(cfg.StandardPagination),
		booksPaginator: query.NewPaginator(cfg.SmallPagination),
		topRatedLimit:  cfg.TopRatedDefaultLimit,
	}

	g.GET("", h.list)
	g.POST("", h.create, authMiddleware.RequireUser)
	g.GET("/top_rated", h.topRated)
	g.GET("/:id", h.retrieve)
	g.PUT("/:id", h.replace, authMiddleware.RequireUser)
	g.PATCH("/:id", h.update, authMiddleware.RequireUser)
	g.DELETE("/:id", h.delete, authMiddleware.RequireUser)
	g.GET("/:id/statistics", h.statistics)
	g.GET("/:id/books", h.books)
}
