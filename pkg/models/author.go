package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a" tstype:"-"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `bun:",nullzero" json:"name"`
	Bio         string    `json:"bio"`
	BirthDate   *string   `json:"birth_date"`
	Nationality string    `json:"nationality"`
	Website     *string   `json:"website"`
	Books       []*Book   `bun:"rel:has-many,join:id=author_id" json:"books,omitempty" tstype:"Book[]"`

	// Aggregates over the author's books, filled in by list and retrieve queries.
	BookCount     int      `bun:",scanonly" json:"book_count"`
	AverageRating *float64 `bun:",scanonly" json:"average_rating"`
}
