package binder

import (
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

type bookParams struct {
	Title   string   `json:"title" form:"title" mod:"trim" validate:"required,max=200"`
	ISBN    string   `json:"isbn" form:"isbn" mod:"isbn" validate:"required,len=13,digits"`
	Year    int      `json:"year" form:"year" validate:"gte=1000,notfuture"`
	Rating  *float64 `json:"rating" form:"rating" validate:"omitempty,gte=0,lte=5,decimals2"`
	Website string   `json:"website" form:"website" validate:"url"`
	Born    string   `json:"born" form:"born" validate:"date,notfuture"`
	InStock *bool    `json:"in_stock" form:"in_stock" default:"true"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		fields, ok := errcodes.FieldErrors(err)
		require.True(tt, ok)
		assert.Equal(tt, "hello", fields[0].Field)
		assert.Contains(tt, fields[0].Message, `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		fields, ok := errcodes.FieldErrors(err)
		require.True(tt, ok)
		require.Len(tt, fields, 1)
		assert.Contains(tt, fields[0].Message, "length must be less than or equal to 9 characters")
	})

	t.Run("collects every invalid field", func(tt *testing.T) {
		future := strconv.Itoa(time.Now().Year() + 1)
		payload := `{"title":"  ","isbn":"97812345678X0","year":` + future + `,"rating":4.555,"website":"ftp://example.com","born":"2999-01-01"}`
		c := newContext(payload, echo.MIMEApplicationJSON)
		p := bookParams{}
		err = b.Bind(&p, c)
		fields, ok := errcodes.FieldErrors(err)
		require.True(tt, ok)

		names := []string{}
		for _, f := range fields {
			names = append(names, f.Field)
		}
		assert.ElementsMatch(tt, []string{"title", "isbn", "year", "rating", "website", "born"}, names)
	})

	t.Run("reports type errors together with validation errors", func(tt *testing.T) {
		future := strconv.Itoa(time.Now().Year() + 1)
		payload := `{"title":"","isbn":"9780441172719","year":` + future + `,"rating":"high"}`
		c := newContext(payload, echo.MIMEApplicationJSON)
		p := bookParams{}
		err = b.Bind(&p, c)
		fields, ok := errcodes.FieldErrors(err)
		require.True(tt, ok)

		byName := map[string]string{}
		for _, f := range fields {
			byName[f.Field] = f.Message
		}
		assert.Len(tt, fields, 3)
		assert.Contains(tt, byName["rating"], `"rating" should be of type float64`)
		assert.Contains(tt, byName, "title")
		assert.Contains(tt, byName, "year")
		assert.Equal(tt, "9780441172719", p.ISBN)
	})

	t.Run("applies defaults and accepts valid payloads", func(tt *testing.T) {
		payload := `{"title":" Dune ","isbn":"ISBN 978-0-441-17271-9","year":1965,"rating":4.25,"website":"https://example.com","born":"1920-10-08"}`
		c := newContext(payload, echo.MIMEApplicationJSON)
		p := bookParams{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "Dune", p.Title)
		assert.Equal(tt, "9780441172719", p.ISBN)
		require.NotNil(tt, p.InStock)
		assert.True(tt, *p.InStock)
	})

	t.Run("decodes form payloads", func(tt *testing.T) {
		payload := "title=Dune&isbn=9780441172719&year=1965&in_stock=false"
		c := newContext(payload, echo.MIMEApplicationForm)
		p := bookParams{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "Dune", p.Title)
		assert.Equal(tt, 1965, p.Year)
		require.NotNil(tt, p.InStock)
		assert.False(tt, *p.InStock)
	})

	t.Run("reports form conversion errors per field", func(tt *testing.T) {
		payload := "title=Dune&isbn=9780441172719&year=abc"
		c := newContext(payload, echo.MIMEApplicationForm)
		p := bookParams{}
		err = b.Bind(&p, c)
		fields, ok := errcodes.FieldErrors(err)
		require.True(tt, ok)
		require.Len(tt, fields, 1)
		assert.Equal(tt, "year", fields[0].Field)
	})
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
