package authors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/query"
)

type handler struct {
	authorService *Service

	paginator      query.Paginator
	booksPaginator query.Paginator
	topRatedLimit  int
}

func authorID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Author")
	}
	return id, nil
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := authorID(c)
	if err != nil {
		return err
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, NewAuthorResponse(author)))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	params := c.QueryParams()

	page, err := h.paginator.Page(params)
	if err != nil {
		return err
	}

	authors, total, err := h.authorService.ListAuthorsWithTotal(ctx, ListAuthorsOptions{
		Query: query.Authors.Parse(ctx, params),
		Page:  &page,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := query.NewResult(query.RequestURL(c.Scheme(), c.Request()), page, total, newAuthorResponses(authors))
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	// Bind params.
	params := AuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author := &models.Author{}
	params.apply(author)

	err := h.authorService.CreateAuthor(ctx, author)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("created author", logger.Data{"author_id": author.ID})

	return h.respondWithAuthor(c, http.StatusCreated, author.ID)
}

// replace handles PUT, which requires the full payload.
func (h *handler) replace(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := authorID(c)
	if err != nil {
		return err
	}

	// Bind params.
	params := AuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Fetch the author.
	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	params.apply(author)

	err = h.authorService.UpdateAuthor(ctx, author, UpdateAuthorOptions{
		Columns: []string{"name", "bio", "birth_date", "nationality", "website"},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respondWithAuthor(c, http.StatusOK, id)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := authorID(c)
	if err != nil {
		return err
	}

	// Bind params.
	params := UpdateAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Fetch the author.
	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateAuthorOptions{Columns: params.apply(author)}

	// Update the model.
	err = h.authorService.UpdateAuthor(ctx, author, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respondWithAuthor(c, http.StatusOK, id)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)
	id, err := authorID(c)
	if err != nil {
		return err
	}

	err = h.authorService.DeleteAuthor(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("deleted author", logger.Data{"author_id": id})

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// respondWithAuthor reloads the author so the response carries fresh
// aggregates.
func (h *handler) respondWithAuthor(c echo.Context, code, id int) error {
	author, err := h.authorService.RetrieveAuthor(c.Request().Context(), RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(code, NewAuthorResponse(author)))
}

func (h *handler) statistics(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := authorID(c)
	if err != nil {
		return err
	}

	stats, err := h.authorService.AuthorStatistics(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, stats))
}

func (h *handler) topRated(c echo.Context) error {
	ctx := c.Request().Context()

	limit := h.topRatedLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	authors, err := h.authorService.TopRatedAuthors(ctx, limit)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newTopRatedAuthors(authors)))
}

// books lists one author's books with the book criteria, search and ordering
// applied.
func (h *handler) books(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := authorID(c)
	if err != nil {
		return err
	}
	params := c.QueryParams()

	page, err := h.booksPaginator.Page(params)
	if err != nil {
		return err
	}

	exists, err := h.authorService.AuthorExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errcodes.NotFound("Author")
	}

	books, total, err := h.authorService.ListAuthorBooksWithTotal(ctx, ListAuthorBooksOptions{
		AuthorID: id,
		Query:    query.Books.Parse(ctx, params),
		Page:     &page,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := query.NewResult(query.RequestURL(c.Scheme(), c.Request()), page, total, models.BookListItems(books))
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
