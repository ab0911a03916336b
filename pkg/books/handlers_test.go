package books

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/auth"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/query"
	"github.com/shishobooks/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testServer struct {
	e     *echo.Echo
	db    *bun.DB
	token string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutils.SetupTestDB(t)
	cfg := config.NewForTest()

	authService := auth.NewService(db, cfg.JWTSecret, time.Hour)
	token, err := authService.GenerateToken(testutils.CreateUser(t, db, "editor"))
	require.NoError(t, err)

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	authMiddleware := auth.NewMiddleware(authService)
	RegisterRoutesWithGroup(e.Group("/books", authMiddleware.AuthenticateOptional), db, cfg, authMiddleware)

	return &testServer{e: e, db: db, token: token}
}

func (s *testServer) do(method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authenticated {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) list(t *testing.T, path string) query.Result[models.BookListItem] {
	t.Helper()
	rec := s.do(http.MethodGet, path, "", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp query.Result[models.BookListItem]
	decode(t, rec, &resp)
	return resp
}

func (s *testServer) countBooks(t *testing.T) int {
	t.Helper()
	count, err := s.db.NewSelect().Model((*models.Book)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

type errorBody struct {
	Error struct {
		Code   string                `json:"code"`
		Fields []errcodes.FieldError `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func fieldErrors(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "validation_error", body.Error.Code)
	fields := map[string]string{}
	for _, f := range body.Error.Fields {
		fields[f.Field] = f.Message
	}
	return fields
}

func ids(items []models.BookListItem) []int {
	out := []int{}
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

type catalog struct {
	american *models.Author
	british  *models.Author
	b1       *models.Book
	b2       *models.Book
}

func seedCatalog(t *testing.T, db *bun.DB) *catalog {
	t.Helper()
	c := &catalog{}
	c.american = testutils.CreateAuthor(t, db, "Ada American", func(a *models.Author) {
		a.Nationality = "American"
	})
	c.british = testutils.CreateAuthor(t, db, "Bea British", func(a *models.Author) {
		a.Nationality = "British"
	})
	c.b1 = testutils.CreateBook(t, db, c.american, "Go in Practice", "9781234567890", func(b *models.Book) {
		b.Genre = models.GenreTechnology
		b.Price = 29.99
		b.Rating = testutils.Ptr(4.5)
		b.PublicationYear = 2021
	})
	c.b2 = testutils.CreateBook(t, db, c.american, "The Long Novel", "9781234567891", func(b *models.Book) {
		b.Genre = models.GenreFiction
		b.Price = 19.99
		b.Rating = testutils.Ptr(4.2)
		b.PublicationYear = 2019
		b.InStock = false
	})
	return c
}

func bookBody(authorID int, isbn string, extra string) string {
	body := `{"title":"A New Book","author_id":` + strconv.Itoa(authorID) + `,"isbn":"` + isbn + `","publication_year":2020,"price":12.5`
	if extra != "" {
		body += "," + extra
	}
	return body + "}"
}

func TestList_Scenario(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	resp := s.list(t, "/books?price_min=20&price_max=35")
	assert.Equal(t, []int{c.b1.ID}, ids(resp.Results))

	resp = s.list(t, "/books?rating_min=4.3")
	assert.Equal(t, []int{c.b1.ID}, ids(resp.Results))

	resp = s.list(t, "/books?ordering=price")
	assert.Equal(t, []int{c.b2.ID, c.b1.ID}, ids(resp.Results))
	assert.Equal(t, "Ada American", resp.Results[0].AuthorName)

	resp = s.list(t, "/books")
	assert.Equal(t, []int{c.b1.ID, c.b2.ID}, ids(resp.Results))
	assert.Equal(t, 20, resp.PageSize)
}

func TestList_PageBeyondLast(t *testing.T) {
	s := setupTestServer(t)
	seedCatalog(t, s.db)

	resp := s.list(t, "/books?page=5&page_size=20")
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, 5, resp.CurrentPage)
	assert.Empty(t, resp.Results)
	assert.Nil(t, resp.Next)
	assert.Nil(t, resp.Previous)

	resp = s.list(t, "/books?page=9223372036854775807&page_size=20")
	assert.Equal(t, 2, resp.Count)
	assert.Empty(t, resp.Results)
	assert.Nil(t, resp.Previous)

	rec := s.do(http.MethodGet, "/books?page=abc", "", false)
	fields := fieldErrors(t, rec)
	assert.Contains(t, fields, "page")
}

func TestList_NextLink(t *testing.T) {
	s := setupTestServer(t)
	seedCatalog(t, s.db)

	resp := s.list(t, "/books?page_size=1&genre_in=fiction,technology")
	assert.Equal(t, 2, resp.TotalPages)
	require.NotNil(t, resp.Next)

	next, err := url.Parse(*resp.Next)
	require.NoError(t, err)
	assert.Equal(t, "2", next.Query().Get("page"))
	assert.Equal(t, "fiction,technology", next.Query().Get("genre_in"))
	assert.Nil(t, resp.Previous)
}

func TestRetrieve(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	rec := s.do(http.MethodGet, "/books/"+strconv.Itoa(c.b1.ID), "", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detail BookDetail
	decode(t, rec, &detail)
	assert.Equal(t, "Go in Practice", detail.Title)
	assert.Equal(t, c.american.ID, detail.AuthorID)
	assert.Equal(t, "Ada American", detail.AuthorName)
	assert.Equal(t, "Ada American", detail.Author.Name)
	assert.Equal(t, 2, detail.Author.BookCount)
	assert.Equal(t, time.Now().Year()-2021, detail.BookAge)
	assert.Equal(t, detail.BookAge <= models.RecentBookAge, detail.IsRecent)

	rec = s.do(http.MethodGet, "/books/9999", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_RoundTripISBNFilter(t *testing.T) {
	s := setupTestServer(t)
	author := testutils.CreateAuthor(t, s.db, "Ada American")

	rec := s.do(http.MethodPost, "/books", bookBody(author.ID, "9781234567890", ""), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var detail BookDetail
	decode(t, rec, &detail)
	assert.Equal(t, models.GenreOther, detail.Genre)
	assert.True(t, detail.InStock)

	resp := s.list(t, "/books?isbn=9781234567890")
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, []int{detail.ID}, ids(resp.Results))
}

func TestCreate_DuplicateISBN(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	rec := s.do(http.MethodPost, "/books", bookBody(c.british.ID, c.b1.ISBN, ""), true)
	fields := fieldErrors(t, rec)
	assert.Equal(t, map[string]string{"isbn": isbnTakenMessage}, fields)
	assert.Equal(t, 2, s.countBooks(t))
}

func TestCreate_DuplicateTitleForAuthorAndYear(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	body := `{"title":"go IN practice","author_id":` + strconv.Itoa(c.american.ID) + `,"isbn":"9780000000001","publication_year":2021,"price":1}`
	fields := fieldErrors(t, s.do(http.MethodPost, "/books", body, true))
	assert.Equal(t, map[string]string{"title": duplicateMessage}, fields)

	// Same title by another author is fine.
	body = `{"title":"Go in Practice","author_id":` + strconv.Itoa(c.british.ID) + `,"isbn":"9780000000001","publication_year":2021,"price":1}`
	rec := s.do(http.MethodPost, "/books", body, true)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreate_CollectsAllFieldErrors(t *testing.T) {
	s := setupTestServer(t)

	future := strconv.Itoa(time.Now().Year() + 1)
	body := `{"title":"  ","author_id":4242,"isbn":"97812345678ab","publication_year":` + future + `,"genre":"poetry","rating":7,"price":-1}`

	fields := fieldErrors(t, s.do(http.MethodPost, "/books", body, true))
	assert.ElementsMatch(t,
		[]string{"title", "author_id", "isbn", "publication_year", "genre", "rating", "price"},
		keys(fields),
	)
	assert.Equal(t, "Author with id 4242 does not exist.", fields["author_id"])
	assert.Equal(t, 0, s.countBooks(t))
}

func TestCreate_TypeErrorDoesNotHideOtherFields(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	future := strconv.Itoa(time.Now().Year() + 1)
	body := `{"title":"","author_id":99999,"isbn":"` + c.b1.ISBN + `","publication_year":` + future + `,"price":"abc"}`

	fields := fieldErrors(t, s.do(http.MethodPost, "/books", body, true))
	assert.ElementsMatch(t,
		[]string{"title", "author_id", "isbn", "publication_year", "price"},
		keys(fields),
	)
	assert.Contains(t, fields["price"], "should be of type")
	assert.Equal(t, isbnTakenMessage, fields["isbn"])
	assert.Equal(t, 2, s.countBooks(t))
}

func keys(m map[string]string) []string {
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCreate_NormalizesInput(t *testing.T) {
	s := setupTestServer(t)
	author := testutils.CreateAuthor(t, s.db, "Ada American")

	rec := s.do(http.MethodPost, "/books", bookBody(author.ID, "978-1-234-56789-0", `"in_stock":false,"genre":"Sci-Fi","rating":3.25`), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var detail BookDetail
	decode(t, rec, &detail)
	assert.Equal(t, "9781234567890", detail.ISBN)
	assert.False(t, detail.InStock)
	assert.Equal(t, models.GenreSciFi, detail.Genre)
	require.NotNil(t, detail.Rating)
	assert.Equal(t, 3.25, *detail.Rating)
}

func TestCreate_FormEncoded(t *testing.T) {
	s := setupTestServer(t)
	author := testutils.CreateAuthor(t, s.db, "Ada American")

	form := url.Values{}
	form.Set("title", "Form Book")
	form.Set("author_id", strconv.Itoa(author.ID))
	form.Set("isbn", "9781234567890")
	form.Set("publication_year", "2001")
	form.Set("price", "5")

	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var detail BookDetail
	decode(t, rec, &detail)
	assert.Equal(t, "Form Book", detail.Title)
	assert.Equal(t, 2001, detail.PublicationYear)
}

func TestWrites_RequireAuthentication(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)
	path := "/books/" + strconv.Itoa(c.b1.ID)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/books", bookBody(c.american.ID, "9780000000001", ""), false).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path, bookBody(c.american.ID, "9780000000001", ""), false).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, path, `{"title":"New"}`, false).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, "", false).Code)
	assert.Equal(t, 2, s.countBooks(t))
}

func TestUpdate(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)
	path := "/books/" + strconv.Itoa(c.b2.ID)

	rec := s.do(http.MethodPatch, path, `{"price":24.5,"in_stock":true}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail BookDetail
	decode(t, rec, &detail)
	assert.Equal(t, 24.5, detail.Price)
	assert.True(t, detail.InStock)
	assert.Equal(t, "The Long Novel", detail.Title)

	// Keeping its own ISBN is not a conflict.
	rec = s.do(http.MethodPatch, path, `{"isbn":"`+c.b2.ISBN+`"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	fields := fieldErrors(t, s.do(http.MethodPatch, path, `{"isbn":"`+c.b1.ISBN+`","title":""}`, true))
	assert.ElementsMatch(t, []string{"isbn", "title"}, keys(fields))

	rec = s.do(http.MethodPut, path, `{"title":"Only Title"}`, true)
	fields = fieldErrors(t, rec)
	assert.ElementsMatch(t, []string{"author_id", "isbn", "publication_year", "price"}, keys(fields))

	rec = s.do(http.MethodPut, path, bookBody(c.british.ID, "9780000000001", ""), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &detail)
	assert.Equal(t, "A New Book", detail.Title)
	assert.Equal(t, "Bea British", detail.AuthorName)
	assert.Nil(t, detail.Rating)

	rec = s.do(http.MethodPatch, "/books/9999", `{"title":"New"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)
	path := "/books/" + strconv.Itoa(c.b1.ID)

	rec := s.do(http.MethodDelete, path, "", true)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.countBooks(t))

	rec = s.do(http.MethodDelete, path, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecent(t *testing.T) {
	s := setupTestServer(t)
	author := testutils.CreateAuthor(t, s.db, "Ada American")
	year := time.Now().Year()
	fresh := testutils.CreateBook(t, s.db, author, "Fresh", "9780000000001", func(b *models.Book) {
		b.PublicationYear = year
	})
	older := testutils.CreateBook(t, s.db, author, "Older", "9780000000002", func(b *models.Book) {
		b.PublicationYear = year - 3
	})
	testutils.CreateBook(t, s.db, author, "Ancient", "9780000000003", func(b *models.Book) {
		b.PublicationYear = 1900
	})

	assert.Equal(t, []int{fresh.ID}, ids(s.list(t, "/books/recent").Results))
	assert.Equal(t, []int{fresh.ID, older.ID}, ids(s.list(t, "/books/recent?years=5").Results))
	assert.Equal(t, []int{fresh.ID}, ids(s.list(t, "/books/recent?years=-4").Results))
	assert.Equal(t, []int{fresh.ID}, ids(s.list(t, "/books/recent?years=many").Results))
	assert.Equal(t, []int{older.ID, fresh.ID}, ids(s.list(t, "/books/recent?years=5&ordering=publication_year").Results))
}

func TestByGenre(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	assert.Equal(t, []int{c.b2.ID}, ids(s.list(t, "/books/by_genre?genre=FICTION").Results))
	assert.Empty(t, s.list(t, "/books/by_genre?genre=poetry").Results)

	fields := fieldErrors(t, s.do(http.MethodGet, "/books/by_genre", "", false))
	assert.Contains(t, fields, "genre")
}

func TestInStock(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	assert.Equal(t, []int{c.b1.ID}, ids(s.list(t, "/books/in_stock").Results))
}

func TestPriceRange(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)
	testutils.CreateBook(t, s.db, c.british, "Collector's Edition", "9780000000001", func(b *models.Book) {
		b.Price = 1500
	})

	assert.Equal(t, []int{c.b1.ID, c.b2.ID}, ids(s.list(t, "/books/price_range").Results))
	assert.Equal(t, []int{c.b2.ID}, ids(s.list(t, "/books/price_range?max_price=20").Results))
	assert.Equal(t, []int{c.b1.ID, c.b2.ID}, ids(s.list(t, "/books/price_range?min_price=cheap").Results))
	assert.Equal(t, []int{c.b1.ID, c.b2.ID}, ids(s.list(t, "/books/price_range?min_price=NaN&max_price=Inf").Results))
	assert.Len(t, s.list(t, "/books/price_range?max_price=2000").Results, 3)
}

func TestSearch(t *testing.T) {
	s := setupTestServer(t)
	c := seedCatalog(t, s.db)

	resp := s.list(t, "/books/search?q=novel")
	assert.Equal(t, 50, resp.PageSize)
	assert.Equal(t, []int{c.b2.ID}, ids(resp.Results))

	resp = s.list(t, "/books/search?q=ada&ordering=price")
	assert.Equal(t, []int{c.b2.ID, c.b1.ID}, ids(resp.Results))

	resp = s.list(t, "/books/search?genre=Technology&min_rating=4&max_price=50")
	assert.Equal(t, []int{c.b1.ID}, ids(resp.Results))

	resp = s.list(t, "/books/search?q=ada&in_stock=false")
	assert.Equal(t, []int{c.b2.ID}, ids(resp.Results))

	resp = s.list(t, "/books/search?q=ada&publication_year_min=2020&min_price=NaN")
	assert.Equal(t, []int{c.b1.ID}, ids(resp.Results))

	resp = s.list(t, "/books/search?min_rating=high&page_size=1000")
	assert.Equal(t, 500, resp.PageSize)
	assert.Len(t, resp.Results, 2)
}
