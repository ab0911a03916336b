package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/query"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID *int
}

// ListBooksOptions narrows a book list before the request's query is
// applied. Genre matches case-insensitively.
type ListBooksOptions struct {
	AuthorID           *int
	MinPublicationYear *int
	Genre              *string
	InStock            *bool
	MinPrice           *float64
	MaxPrice           *float64
	MinRating          *float64
	MaxRating          *float64
	SearchText         *string

	Query *query.Query
	Page  *query.Page
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return constraintError(err)
	}

	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author")

	if opts.AuthorID != nil {
		q = q.Where("b.author_id = ?", *opts.AuthorID)
	}
	if opts.MinPublicationYear != nil {
		q = q.Where("b.publication_year >= ?", *opts.MinPublicationYear)
	}
	if opts.Genre != nil {
		q = q.Where("LOWER(b.genre) = LOWER(?)", *opts.Genre)
	}
	if opts.InStock != nil {
		q = q.Where("b.in_stock = ?", *opts.InStock)
	}
	if opts.MinPrice != nil {
		q = q.Where("b.price >= ?", *opts.MinPrice)
	}
	if opts.MaxPrice != nil {
		q = q.Where("b.price <= ?", *opts.MaxPrice)
	}
	if opts.MinRating != nil {
		q = q.Where("b.rating >= ?", *opts.MinRating)
	}
	if opts.MaxRating != nil {
		q = q.Where("b.rating <= ?", *opts.MaxRating)
	}
	if opts.SearchText != nil {
		q = query.Books.Search(q, *opts.SearchText)
	}

	if opts.Query != nil {
		q = opts.Query.Apply(q)
	} else {
		q = query.Books.Order(q, "")
	}
	if opts.Page != nil {
		q = opts.Page.Apply(q)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	// Update updated_at.
	now := time.Now()
	book.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book")
		}
		return constraintError(err)
	}

	return nil
}

func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

const (
	isbnTakenMessage  = "Book with this ISBN already exists."
	duplicateMessage  = "Book with this title, author and publication year already exists."
	missingAuthorText = "Author with id %d does not exist."
)

// ValidateBook runs the checks that need the store: the author must exist,
// the ISBN must be unused and no other book by the author may share the title
// (case-insensitively) and publication year. Checks whose inputs are unset
// are skipped.
func (svc *Service) ValidateBook(ctx context.Context, book *models.Book) ([]errcodes.FieldError, error) {
	fields := []errcodes.FieldError{}

	if book.AuthorID > 0 {
		exists, err := svc.db.
			NewSelect().
			Model((*models.Author)(nil)).
			Where("a.id = ?", book.AuthorID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if !exists {
			fields = append(fields, errcodes.FieldError{
				Field:   "author_id",
				Message: fmt.Sprintf(missingAuthorText, book.AuthorID),
			})
		}
	}

	if book.ISBN != "" {
		exists, err := svc.db.
			NewSelect().
			Model((*models.Book)(nil)).
			Where("b.isbn = ?", book.ISBN).
			Where("b.id != ?", book.ID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			fields = append(fields, errcodes.FieldError{Field: "isbn", Message: isbnTakenMessage})
		}
	}

	if book.Title != "" && book.AuthorID > 0 && book.PublicationYear > 0 {
		exists, err := svc.db.
			NewSelect().
			Model((*models.Book)(nil)).
			Where("LOWER(b.title) = LOWER(?)", book.Title).
			Where("b.author_id = ?", book.AuthorID).
			Where("b.publication_year = ?", book.PublicationYear).
			Where("b.id != ?", book.ID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			fields = append(fields, errcodes.FieldError{Field: "title", Message: duplicateMessage})
		}
	}

	return fields, nil
}

// constraintError turns a constraint violation that slipped past
// ValidateBook, such as a concurrent insert, into a validation error.
func constraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: books.isbn"):
		return errcodes.ValidationError("isbn", isbnTakenMessage)
	case strings.Contains(msg, "UNIQUE constraint failed: books.title"):
		return errcodes.ValidationError("title", duplicateMessage)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return errcodes.ValidationError("author_id", "Author does not exist.")
	}
	return errors.WithStack(err)
}
