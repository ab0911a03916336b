package query

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/uptrace/bun"
)

const (
	PageParam     = "page"
	PageSizeParam = "page_size"
)

// Page is a validated 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

// Paginator turns page and page_size params into a Page for one pagination
// configuration.
type Paginator struct {
	Default int
	Max     int
}

func NewPaginator(cfg config.Pagination) Paginator {
	return Paginator{Default: cfg.Default, Max: cfg.Max}
}

// Page parses the page params. A page that isn't a positive integer is a
// validation error. A malformed or non-positive page size falls back to the
// default and a page size above the maximum is clamped.
func (p Paginator) Page(params url.Values) (Page, error) {
	page := Page{Number: 1, Size: p.Default}

	if raw := strings.TrimSpace(params.Get(PageParam)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, errcodes.ValidationError(PageParam, `"page" must be an integer`)
		}
		if n < 1 {
			return Page{}, errcodes.ValidationError(PageParam, `"page" must be greater than or equal to 1`)
		}
		page.Number = n
	}

	if raw := strings.TrimSpace(params.Get(PageSizeParam)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = n
		}
	}
	if p.Max > 0 && page.Size > p.Max {
		page.Size = p.Max
	}

	return page, nil
}

// Offset is the number of rows before the page. It saturates at math.MaxInt
// so that a huge page number still lands past the last row.
func (pg Page) Offset() int {
	if pg.Size > 0 && pg.Number-1 > math.MaxInt/pg.Size {
		return math.MaxInt
	}
	return (pg.Number - 1) * pg.Size
}

// Apply slices q to the page.
func (pg Page) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Limit(pg.Size).Offset(pg.Offset())
}

// Result is the paginated response envelope.
type Result[T any] struct {
	Count       int     `json:"count"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	PageSize    int     `json:"page_size"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	Results     []T     `json:"results"`
}

// NewResult builds the envelope for one page of a result set of count rows.
// base is the absolute request URL; neighbouring page links are derived from
// it by replacing the page parameter.
func NewResult[T any](base *url.URL, pg Page, count int, results []T) *Result[T] {
	if results == nil {
		results = []T{}
	}

	totalPages := 1
	if count > 0 {
		totalPages = (count + pg.Size - 1) / pg.Size
	}

	res := &Result[T]{
		Count:       count,
		PageSize:    pg.Size,
		TotalPages:  totalPages,
		CurrentPage: pg.Number,
		Results:     results,
	}
	if pg.Number < totalPages {
		res.Next = pageURL(base, pg.Number+1)
	}
	if pg.Number > 1 && pg.Number-1 <= totalPages {
		res.Previous = pageURL(base, pg.Number-1)
	}
	return res
}

func pageURL(base *url.URL, n int) *string {
	if base == nil {
		return nil
	}
	u := *base
	params := u.Query()
	if n == 1 {
		params.Del(PageParam)
	} else {
		params.Set(PageParam, strconv.Itoa(n))
	}
	u.RawQuery = params.Encode()
	s := u.String()
	return &s
}

// RequestURL reconstructs the absolute URL of r. scheme is the scheme the
// client used, which may differ from r.URL's behind a proxy.
func RequestURL(scheme string, r *http.Request) *url.URL {
	u := *r.URL
	u.Scheme = scheme
	u.Host = r.Host
	return &u
}
