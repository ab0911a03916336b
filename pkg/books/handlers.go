package books

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/authors"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/query"
)

const (
	defaultMinPrice = 0
	defaultMaxPrice = 1000
)

type handler struct {
	bookService   *Service
	authorService *authors.Service

	paginator       query.Paginator
	searchPaginator query.Paginator
	recentYears     int
}

func bookID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Book")
	}
	return id, nil
}

// floatParam parses the named query param, returning nil when it's missing,
// malformed or not finite.
func floatParam(params url.Values, name string) *float64 {
	raw := strings.TrimSpace(params.Get(name))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func floatParamOr(params url.Values, name string, dflt float64) float64 {
	if f := floatParam(params, name); f != nil {
		return *f
	}
	return dflt
}

// bindFields binds the payload and returns its field errors instead of
// failing, so that they can be reported together with the store checks.
func bindFields(c echo.Context, i interface{}) ([]errcodes.FieldError, error) {
	err := c.Bind(i)
	if err == nil {
		return nil, nil
	}
	if fields, ok := errcodes.FieldErrors(err); ok {
		return fields, nil
	}
	return nil, errors.WithStack(err)
}

func (h *handler) validate(ctx context.Context, book *models.Book, fields []errcodes.FieldError) error {
	extra, err := h.bookService.ValidateBook(ctx, book)
	if err != nil {
		return err
	}
	fields = errcodes.MergeFieldErrors(fields, extra...)
	if len(fields) > 0 {
		return errcodes.ValidationErrors(fields)
	}
	return nil
}

// listPage runs a paginated book list. opts.Query and opts.Page are filled in
// from the request.
func (h *handler) listPage(c echo.Context, paginator query.Paginator, opts ListBooksOptions) error {
	ctx := c.Request().Context()
	params := c.QueryParams()

	page, err := paginator.Page(params)
	if err != nil {
		return err
	}
	opts.Page = &page
	if opts.Query == nil {
		opts.Query = query.Books.Parse(ctx, params)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := query.NewResult(query.RequestURL(c.Scheme(), c.Request()), page, total, models.BookListItems(books))
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) list(c echo.Context) error {
	return h.listPage(c, h.paginator, ListBooksOptions{})
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	return h.respondWithBook(c, http.StatusOK, id)
}

// respondWithBook loads the book and its author's aggregates and writes the
// detail representation.
func (h *handler) respondWithBook(c echo.Context, code, id int) error {
	ctx := c.Request().Context()

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.RetrieveAuthor(ctx, authors.RetrieveAuthorOptions{
		ID: &book.AuthorID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(code, newBookDetail(book, author, time.Now())))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	// Bind params.
	params := BookPayload{}
	fields, err := bindFields(c, &params)
	if err != nil {
		return err
	}

	book := &models.Book{}
	params.apply(book)

	if err := h.validate(ctx, book, fields); err != nil {
		return err
	}

	err = h.bookService.CreateBook(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("created book", logger.Data{"book_id": book.ID, "author_id": book.AuthorID})

	return h.respondWithBook(c, http.StatusCreated, book.ID)
}

// replace handles PUT, which requires the full payload.
func (h *handler) replace(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}

	// Fetch the book.
	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Bind params.
	params := BookPayload{}
	fields, err := bindFields(c, &params)
	if err != nil {
		return err
	}

	params.apply(book)

	if err := h.validate(ctx, book, fields); err != nil {
		return err
	}

	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{Columns: replacedColumns})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respondWithBook(c, http.StatusOK, id)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}

	// Fetch the book.
	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Bind params.
	params := UpdateBookPayload{}
	fields, err := bindFields(c, &params)
	if err != nil {
		return err
	}

	// Keep track of what's been changed.
	opts := UpdateBookOptions{Columns: params.apply(book)}

	if err := h.validate(ctx, book, fields); err != nil {
		return err
	}

	// Update the model.
	err = h.bookService.UpdateBook(ctx, book, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respondWithBook(c, http.StatusOK, id)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)
	id, err := bookID(c)
	if err != nil {
		return err
	}

	err = h.bookService.DeleteBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("deleted book", logger.Data{"book_id": id})

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// recent lists books published within the last `years` years.
func (h *handler) recent(c echo.Context) error {
	years := h.recentYears
	if raw := strings.TrimSpace(c.QueryParam("years")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			years = n
		}
	}

	minYear := time.Now().Year() - years
	return h.listPage(c, h.paginator, ListBooksOptions{
		MinPublicationYear: &minYear,
	})
}

func (h *handler) byGenre(c echo.Context) error {
	genre := strings.TrimSpace(c.QueryParam("genre"))
	if genre == "" {
		return errcodes.ValidationError("genre", `"genre" is required`)
	}

	return h.listPage(c, h.paginator, ListBooksOptions{
		Genre: &genre,
	})
}

func (h *handler) inStock(c echo.Context) error {
	inStock := true
	return h.listPage(c, h.paginator, ListBooksOptions{
		InStock: &inStock,
	})
}

func (h *handler) priceRange(c echo.Context) error {
	params := c.QueryParams()
	minPrice := floatParamOr(params, "min_price", defaultMinPrice)
	maxPrice := floatParamOr(params, "max_price", defaultMaxPrice)

	return h.listPage(c, h.paginator, ListBooksOptions{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})
}

// search is the advanced search: free text in q plus optional genre, rating
// and price bounds. Malformed bounds are ignored. The regular list criteria,
// search and ordering params apply on top.
func (h *handler) search(c echo.Context) error {
	params := c.QueryParams()

	opts := ListBooksOptions{
		MinRating: floatParam(params, "min_rating"),
		MaxRating: floatParam(params, "max_rating"),
		MinPrice:  floatParam(params, "min_price"),
		MaxPrice:  floatParam(params, "max_price"),
	}
	if q := params.Get("q"); strings.TrimSpace(q) != "" {
		opts.SearchText = &q
	}
	if genre := strings.TrimSpace(params.Get("genre")); genre != "" {
		opts.Genre = &genre
	}

	return h.listPage(c, h.searchPaginator, opts)
}
