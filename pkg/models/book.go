package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RecentBookAge is the largest age, in years, at which a book still counts as
// recent.
const RecentBookAge = 5

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" tstype:"-"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Title           string    `bun:",nullzero" json:"title"`
	AuthorID        int       `bun:",nullzero" json:"author_id"`
	Author          *Author   `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty" tstype:"Author"`
	ISBN            string    `bun:"isbn,nullzero" json:"isbn"`
	PublicationYear int       `json:"publication_year"`
	Genre           string    `bun:",nullzero" json:"genre"`
	Pages           *int      `json:"pages"`
	Rating          *float64  `json:"rating"`
	Price           float64   `json:"price"`
	Description     string    `json:"description"`
	InStock         bool      `json:"in_stock"`
}

// Age is the number of whole years between the book's publication year and
// the given year.
func (b *Book) Age(now time.Time) int {
	return now.Year() - b.PublicationYear
}

func (b *Book) IsRecent(now time.Time) bool {
	return b.Age(now) <= RecentBookAge
}

// BookSummary is the short form of a book nested in author responses.
type BookSummary struct {
	ID              int      `bun:"id" json:"id"`
	Title           string   `bun:"title" json:"title"`
	PublicationYear int      `bun:"publication_year" json:"publication_year"`
	Rating          *float64 `bun:"rating" json:"rating"`
}

func (b *Book) Summary() BookSummary {
	return BookSummary{
		ID:              b.ID,
		Title:           b.Title,
		PublicationYear: b.PublicationYear,
		Rating:          b.Rating,
	}
}

// BookListItem is the form of a book in paginated lists.
type BookListItem struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	AuthorName      string   `json:"author_name"`
	PublicationYear int      `json:"publication_year"`
	Genre           string   `json:"genre"`
	Rating          *float64 `json:"rating"`
	Price           float64  `json:"price"`
	InStock         bool     `json:"in_stock"`
}

// ListItem requires the Author relation to be loaded for AuthorName.
func (b *Book) ListItem() BookListItem {
	item := BookListItem{
		ID:              b.ID,
		Title:           b.Title,
		PublicationYear: b.PublicationYear,
		Genre:           b.Genre,
		Rating:          b.Rating,
		Price:           b.Price,
		InStock:         b.InStock,
	}
	if b.Author != nil {
		item.AuthorName = b.Author.Name
	}
	return item
}

func BookListItems(books []*Book) []BookListItem {
	items := make([]BookListItem, 0, len(books))
	for _, b := range books {
		items = append(items, b.ListItem())
	}
	return items
}
