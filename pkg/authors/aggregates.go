package authors

import (
	"context"
	"database/sql"
	"math"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/query"
)

const (
	MinTopRatedLimit = 1
	MaxTopRatedLimit = 100
)

type GenreCount struct {
	Genre string `bun:"genre" json:"genre"`
	Count int    `bun:"count" json:"count"`
}

type YearCount struct {
	PublicationYear int `bun:"publication_year" json:"publication_year"`
	Count           int `bun:"count" json:"count"`
}

type PriceRange struct {
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
}

// Statistics summarizes an author's books. PriceRange is nil when the author
// has no books.
type Statistics struct {
	TotalBooks       int          `json:"total_books"`
	AverageRating    float64      `json:"average_rating"`
	Genres           []GenreCount `json:"genres"`
	PublicationYears []YearCount  `json:"publication_years"`
	PriceRange       *PriceRange  `json:"price_range"`
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (svc *Service) AuthorStatistics(ctx context.Context, authorID int) (*Statistics, error) {
	exists, err := svc.AuthorExists(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errcodes.NotFound("Author")
	}

	stats := &Statistics{
		Genres:           []GenreCount{},
		PublicationYears: []YearCount{},
	}

	var avgRating, minPrice, maxPrice sql.NullFloat64
	err = svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("AVG(b.rating)").
		ColumnExpr("MIN(b.price)").
		ColumnExpr("MAX(b.price)").
		Where("b.author_id = ?", authorID).
		Scan(ctx, &stats.TotalBooks, &avgRating, &minPrice, &maxPrice)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if avgRating.Valid {
		stats.AverageRating = round2(avgRating.Float64)
	}
	if stats.TotalBooks > 0 {
		stats.PriceRange = &PriceRange{
			MinPrice: minPrice.Float64,
			MaxPrice: maxPrice.Float64,
		}
	}

	err = svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("b.genre AS genre").
		ColumnExpr("COUNT(*) AS count").
		Where("b.author_id = ?", authorID).
		Group("b.genre").
		OrderExpr("COUNT(*) DESC, b.genre ASC").
		Scan(ctx, &stats.Genres)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("b.publication_year AS publication_year").
		ColumnExpr("COUNT(*) AS count").
		Where("b.author_id = ?", authorID).
		Group("b.publication_year").
		OrderExpr("b.publication_year DESC").
		Scan(ctx, &stats.PublicationYears)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return stats, nil
}

// ClampTopRatedLimit keeps limit within the allowed range.
func ClampTopRatedLimit(limit int) int {
	if limit < MinTopRatedLimit {
		return MinTopRatedLimit
	}
	if limit > MaxTopRatedLimit {
		return MaxTopRatedLimit
	}
	return limit
}

// TopRatedAuthors returns up to limit authors that have at least one book,
// highest average rating first. Authors without rated books come last and
// ties are broken by id.
func (svc *Service) TopRatedAuthors(ctx context.Context, limit int) ([]*models.Author, error) {
	authors := []*models.Author{}

	err := svc.selectAuthors(&authors).
		Where(query.BookCountExpr + " > 0").
		OrderExpr(query.AverageRatingExpr + " IS NULL ASC").
		OrderExpr(query.AverageRatingExpr + " DESC").
		OrderExpr("a.id ASC").
		Limit(ClampTopRatedLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return authors, nil
}
