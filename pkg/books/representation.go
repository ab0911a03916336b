package books

import (
	"time"

	"github.com/shishobooks/catalog/pkg/authors"
	"github.com/shishobooks/catalog/pkg/models"
)

// BookDetail is the single-book representation, with the author nested.
type BookDetail struct {
	ID              int                    `json:"id"`
	Title           string                 `json:"title"`
	Author          authors.AuthorResponse `json:"author"`
	AuthorID        int                    `json:"author_id"`
	AuthorName      string                 `json:"author_name"`
	ISBN            string                 `json:"isbn"`
	PublicationYear int                    `json:"publication_year"`
	Genre           string                 `json:"genre"`
	Pages           *int                   `json:"pages"`
	Rating          *float64               `json:"rating"`
	Price           float64                `json:"price"`
	Description     string                 `json:"description"`
	InStock         bool                   `json:"in_stock"`
	BookAge         int                    `json:"book_age"`
	IsRecent        bool                   `json:"is_recent"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func newBookDetail(book *models.Book, author *models.Author, now time.Time) BookDetail {
	return BookDetail{
		ID:              book.ID,
		Title:           book.Title,
		Author:          authors.NewAuthorResponse(author),
		AuthorID:        book.AuthorID,
		AuthorName:      author.Name,
		ISBN:            book.ISBN,
		PublicationYear: book.PublicationYear,
		Genre:           book.Genre,
		Pages:           book.Pages,
		Rating:          book.Rating,
		Price:           book.Price,
		Description:     book.Description,
		InStock:         book.InStock,
		BookAge:         book.Age(now),
		IsRecent:        book.IsRecent(now),
		CreatedAt:       book.CreatedAt,
		UpdatedAt:       book.UpdatedAt,
	}
}
