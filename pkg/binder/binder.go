package binder

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/shishobooks/catalog/pkg/errcodes"
)

var unknownFieldsRE = regexp.MustCompile(`^json: unknown field "(.*)"$`)

// Binder is a custom struct that implements the Echo Binder interface. It binds
// to a struct, uses mold to clean up the params, and validator to validate
// them.
type Binder struct {
	queryDecoder *schema.Decoder
	formDecoder  *schema.Decoder
	conform      *mold.Transformer
	validate     *validator.Validate
}

// New initializes a new Binder instance with the appropriate validation
// functions registered.
func New() (*Binder, error) {
	queryDecoder := schema.NewDecoder()
	queryDecoder.SetAliasTag("query")
	formDecoder := schema.NewDecoder()
	formDecoder.SetAliasTag("form")
	conform := modifiers.New()
	conform.Register(isbnModifier, normalizeISBN)
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation(date, dateValidator)
	_ = validate.RegisterValidation(digits, digitsValidator)
	_ = validate.RegisterValidation(decimals2, decimalsValidator)
	_ = validate.RegisterValidation(notfuture, notFutureValidator)
	_ = validate.RegisterValidation(httpURL, urlValidator)

	return &Binder{queryDecoder, formDecoder, conform, validate}, nil
}

// Bind binds, modifies, and validates payloads against the given struct.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()
	log := logger.FromEchoContext(c)

	disallowEmptyBody := true
	if disallow, ok := c.Get("disallow_empty_body").(bool); ok {
		disallowEmptyBody = disallow
	}

	var decodeFields []errcodes.FieldError

	if req.ContentLength > 0 {
		// request has a body
		ctype := req.Header.Get(echo.HeaderContentType)
		switch {
		// allow application/json
		case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
			dec := json.NewDecoder(req.Body)
			disallowUnknownFields := true
			if disallow, ok := c.Get("disallow_unknown_fields").(bool); ok {
				disallowUnknownFields = disallow
			}
			if disallowUnknownFields {
				dec.DisallowUnknownFields()
			}
			defer req.Body.Close()
			if err := dec.Decode(i); err != nil {
				// return better error message when there are unknown fields
				if matches := unknownFieldsRE.FindAllStringSubmatch(err.Error(), -1); len(matches) > 0 && len(matches[0]) > 1 {
					return errcodes.UnknownParameter(matches[0][1])
				}

				// the rest of the payload is still decoded on type errors, so
				// keep going and report them with the validation errors
				if terr, ok := err.(*json.UnmarshalTypeError); ok {
					field, msg := formatUnmarshalTypeError(terr)
					decodeFields = append(decodeFields, errcodes.FieldError{Field: field, Message: msg})
				} else {
					log.Err(err).Error("unknown json decode error")
					return errcodes.MalformedPayload()
				}
			}
		case strings.HasPrefix(ctype, echo.MIMEApplicationForm), strings.HasPrefix(ctype, echo.MIMEMultipartForm):
			params, err := c.FormParams()
			if err != nil {
				return errcodes.MalformedPayload()
			}
			fields, err := b.decodeQuery(i, params, b.formDecoder)
			if err != nil {
				return err
			}
			decodeFields = fields
		default:
			return errcodes.UnsupportedMediaType()
		}
	} else {
		// request doesn't have a body
		if req.Method == http.MethodGet || req.Method == http.MethodDelete {
			fields, err := b.decodeQuery(i, c.QueryParams(), b.queryDecoder)
			if err != nil {
				return err
			}
			decodeFields = fields
		} else if disallowEmptyBody {
			return errcodes.EmptyRequestBody()
		}
	}

	if err := b.conform.Struct(req.Context(), i); err != nil {
		return errors.WithStack(err)
	}

	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}

	fields := decodeFields
	if err := b.validate.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return errors.WithStack(err)
		}
		// a field that failed to decode keeps its type error
		for _, fe := range errs {
			fields = errcodes.MergeFieldErrors(fields, errcodes.FieldError{
				Field:   fe.Field(),
				Message: formatValidationError(fe),
			})
		}
	}
	if len(fields) > 0 {
		return errcodes.ValidationErrors(fields)
	}
	return nil
}

// decodeQuery decodes params into i. Conversion errors come back as field
// errors so that they can be reported together with validation.
func (b *Binder) decodeQuery(i interface{}, params url.Values, decoder *schema.Decoder) ([]errcodes.FieldError, error) {
	if err := decoder.Decode(i, params); err != nil {
		errs, ok := err.(schema.MultiError)
		if !ok {
			return nil, errors.WithStack(err)
		}
		fields := []errcodes.FieldError{}
		for _, err := range errs {
			switch err := err.(type) {
			case schema.ConversionError:
				fields = append(fields, errcodes.FieldError{
					Field:   err.Key,
					Message: formatSchemaConversionError(err),
				})
			case schema.UnknownKeyError:
				return nil, errcodes.UnknownParameter(err.Key)
			default:
				return nil, errors.WithStack(err)
			}
		}
		sort.Slice(fields, func(a, b int) bool { return fields[a].Field < fields[b].Field })
		return fields, nil
	}
	return nil, nil
}
