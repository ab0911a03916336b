package books

import (
	"github.com/shishobooks/catalog/pkg/models"
)

// BookPayload is the body of POST and PUT.
type BookPayload struct {
	Title           string   `json:"title" form:"title" mod:"trim" validate:"required,min=1,max=200"`
	AuthorID        int      `json:"author_id" form:"author_id" validate:"required,min=1"`
	ISBN            string   `json:"isbn" form:"isbn" mod:"isbn" validate:"required,len=13,digits"`
	PublicationYear int      `json:"publication_year" form:"publication_year" validate:"required,gte=1000,notfuture"`
	Genre           string   `json:"genre" form:"genre" mod:"trim,lcase" default:"other" validate:"oneof=fiction non-fiction mystery romance sci-fi fantasy biography history self-help business technology other"`
	Pages           *int     `json:"pages" form:"pages" validate:"omitnil,min=0"`
	Rating          *float64 `json:"rating" form:"rating" validate:"omitnil,gte=0,lte=5,decimals2"`
	Price           *float64 `json:"price" form:"price" validate:"required,gte=0,decimals2"`
	Description     string   `json:"description" form:"description" mod:"trim"`
	InStock         *bool    `json:"in_stock" form:"in_stock" default:"true"`
}

// UpdateBookPayload is the body of PATCH. Only the fields that are present
// are applied.
type UpdateBookPayload struct {
	Title           *string  `json:"title,omitempty" form:"title" mod:"trim" validate:"omitnil,min=1,max=200"`
	AuthorID        *int     `json:"author_id,omitempty" form:"author_id" validate:"omitnil,min=1"`
	ISBN            *string  `json:"isbn,omitempty" form:"isbn" mod:"isbn" validate:"omitnil,len=13,digits"`
	PublicationYear *int     `json:"publication_year,omitempty" form:"publication_year" validate:"omitnil,gte=1000,notfuture"`
	Genre           *string  `json:"genre,omitempty" form:"genre" mod:"trim,lcase" validate:"omitnil,oneof=fiction non-fiction mystery romance sci-fi fantasy biography history self-help business technology other"`
	Pages           *int     `json:"pages,omitempty" form:"pages" validate:"omitnil,min=0"`
	Rating          *float64 `json:"rating,omitempty" form:"rating" validate:"omitnil,gte=0,lte=5,decimals2"`
	Price           *float64 `json:"price,omitempty" form:"price" validate:"omitnil,gte=0,decimals2"`
	Description     *string  `json:"description,omitempty" form:"description" mod:"trim"`
	InStock         *bool    `json:"in_stock,omitempty" form:"in_stock"`
}

func (p *BookPayload) apply(book *models.Book) {
	book.Title = p.Title
	book.AuthorID = p.AuthorID
	book.ISBN = p.ISBN
	book.PublicationYear = p.PublicationYear
	book.Genre = p.Genre
	book.Pages = p.Pages
	book.Rating = p.Rating
	if p.Price != nil {
		book.Price = *p.Price
	}
	book.Description = p.Description
	book.InStock = p.InStock == nil || *p.InStock
}

// replacedColumns are written by PUT.
var replacedColumns = []string{
	"title", "author_id", "isbn", "publication_year", "genre",
	"pages", "rating", "price", "description", "in_stock",
}

// apply copies the present fields onto book and returns the changed columns.
func (p *UpdateBookPayload) apply(book *models.Book) []string {
	columns := []string{}

	if p.Title != nil && *p.Title != book.Title {
		book.Title = *p.Title
		columns = append(columns, "title")
	}
	if p.AuthorID != nil && *p.AuthorID != book.AuthorID {
		book.AuthorID = *p.AuthorID
		columns = append(columns, "author_id")
	}
	if p.ISBN != nil && *p.ISBN != book.ISBN {
		book.ISBN = *p.ISBN
		columns = append(columns, "isbn")
	}
	if p.PublicationYear != nil && *p.PublicationYear != book.PublicationYear {
		book.PublicationYear = *p.PublicationYear
		columns = append(columns, "publication_year")
	}
	if p.Genre != nil && *p.Genre != book.Genre {
		book.Genre = *p.Genre
		columns = append(columns, "genre")
	}
	if p.Pages != nil {
		book.Pages = p.Pages
		columns = append(columns, "pages")
	}
	if p.Rating != nil {
		book.Rating = p.Rating
		columns = append(columns, "rating")
	}
	if p.Price != nil && *p.Price != book.Price {
		book.Price = *p.Price
		columns = append(columns, "price")
	}
	if p.Description != nil && *p.Description != book.Description {
		book.Description = *p.Description
		columns = append(columns, "description")
	}
	if p.InStock != nil && *p.InStock != book.InStock {
		book.InStock = *p.InStock
		columns = append(columns, "in_stock")
	}

	return columns
}
