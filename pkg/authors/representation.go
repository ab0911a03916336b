package authors

import (
	"time"

	"github.com/shishobooks/catalog/pkg/models"
)

// AuthorResponse is an author with the aggregates derived from their books.
type AuthorResponse struct {
	ID            int                  `json:"id"`
	Name          string               `json:"name"`
	Bio           string               `json:"bio"`
	BirthDate     *string              `json:"birth_date"`
	Nationality   string               `json:"nationality"`
	Website       *string              `json:"website"`
	BookCount     int                  `json:"book_count"`
	LatestBook    *models.BookSummary  `json:"latest_book"`
	AverageRating float64              `json:"average_rating"`
	Books         []models.BookSummary `json:"books"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewAuthorResponse expects the author to be loaded by the service, with
// books ordered newest first.
func NewAuthorResponse(author *models.Author) AuthorResponse {
	resp := AuthorResponse{
		ID:          author.ID,
		Name:        author.Name,
		Bio:         author.Bio,
		BirthDate:   author.BirthDate,
		Nationality: author.Nationality,
		Website:     author.Website,
		BookCount:   author.BookCount,
		Books:       make([]models.BookSummary, 0, len(author.Books)),
		CreatedAt:   author.CreatedAt,
		UpdatedAt:   author.UpdatedAt,
	}
	if author.AverageRating != nil {
		resp.AverageRating = round2(*author.AverageRating)
	}
	for _, b := range author.Books {
		resp.Books = append(resp.Books, b.Summary())
	}
	if len(resp.Books) > 0 {
		latest := resp.Books[0]
		resp.LatestBook = &latest
	}
	return resp
}

func newAuthorResponses(authors []*models.Author) []AuthorResponse {
	resp := make([]AuthorResponse, 0, len(authors))
	for _, a := range authors {
		resp = append(resp, NewAuthorResponse(a))
	}
	return resp
}

// TopRatedAuthor is a top_rated entry. AvgRating is null for authors with no
// rated books.
type TopRatedAuthor struct {
	AuthorResponse
	AvgRating *float64 `json:"avg_rating"`
}

func newTopRatedAuthors(authors []*models.Author) []TopRatedAuthor {
	resp := make([]TopRatedAuthor, 0, len(authors))
	for _, a := range authors {
		entry := TopRatedAuthor{AuthorResponse: NewAuthorResponse(a)}
		if a.AverageRating != nil {
			avg := round2(*a.AverageRating)
			entry.AvgRating = &avg
		}
		resp = append(resp, entry)
	}
	return resp
}
