package authors

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/query"
	"github.com/uptrace/bun"
)

type RetrieveAuthorOptions struct {
	ID *int
}

type ListAuthorsOptions struct {
	Query *query.Query
	Page  *query.Page
}

type UpdateAuthorOptions struct {
	Columns []string
}

type ListAuthorBooksOptions struct {
	AuthorID int
	Query    *query.Query
	Page     *query.Page
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// selectAuthors selects authors together with their book aggregates and
// their books, newest first.
func (svc *Service) selectAuthors(model interface{}) *bun.SelectQuery {
	return svc.db.
		NewSelect().
		Model(model).
		ColumnExpr("a.*").
		ColumnExpr(query.BookCountExpr+" AS book_count").
		ColumnExpr(query.AverageRatingExpr+" AS average_rating").
		Relation("Books", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("b.publication_year DESC", "b.id ASC")
		})
}

func (svc *Service) CreateAuthor(ctx context.Context, author *models.Author) error {
	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = author.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(author).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.selectAuthors(author)

	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

// AuthorExists reports whether an author with the given id exists.
func (svc *Service) AuthorExists(ctx context.Context, id int) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Author)(nil)).
		Where("a.id = ?", id).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	authors := []*models.Author{}

	q := svc.selectAuthors(&authors)

	if opts.Query != nil {
		q = opts.Query.Apply(q)
	} else {
		q = query.Authors.Order(q, "")
	}
	if opts.Page != nil {
		q = opts.Page.Apply(q)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return authors, total, nil
}

func (svc *Service) UpdateAuthor(ctx context.Context, author *models.Author, opts UpdateAuthorOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	// Update updated_at.
	now := time.Now()
	author.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(author).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Author")
		}
		return errors.WithStack(err)
	}

	return nil
}

// DeleteAuthor deletes the author and all of their books.
func (svc *Service) DeleteAuthor(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewDelete().
			Model((*models.Book)(nil)).
			Where("author_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.
			NewDelete().
			Model((*models.Author)(nil)).
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
			return errcodes.NotFound("Author")
		}

		return nil
	})
}

// ListAuthorBooksWithTotal lists one author's books with the book query and
// page applied.
func (svc *Service) ListAuthorBooksWithTotal(ctx context.Context, opts ListAuthorBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Where("b.author_id = ?", opts.AuthorID)

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
