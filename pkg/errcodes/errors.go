package errcodes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// FieldError describes one invalid field of a write payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	HTTPCode int
	Message  string
	Code     string
	Fields   []FieldError
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	te.Fields = err.Fields
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		http.StatusForbidden,
		action + " is not allowed.",
		"forbidden",
		nil,
	}
}

// Unauthorized returns a 401 error for credentials that could not be
// verified.
func Unauthorized(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnauthorized,
		Message:  msg,
		Code:     "unauthorized",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
		nil,
	}
}

// TooManyRequests is returned when a client exceeds the rate limit.
func TooManyRequests() error {
	return &Error{
		http.StatusTooManyRequests,
		"Too many requests, slow down.",
		"too_many_requests",
		nil,
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
		nil,
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusBadRequest,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
		nil,
	}
}

// ValidationError reports a single invalid field.
func ValidationError(field, msg string) error {
	return ValidationErrors([]FieldError{{Field: field, Message: msg}})
}

// ValidationErrors reports every invalid field of a request at once.
func ValidationErrors(fields []FieldError) error {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Invalid fields: " + strings.Join(names, ", ") + ".",
		Code:     "validation_error",
		Fields:   fields,
	}
}

// FieldErrors extracts the field list from a validation error. The boolean is
// false when err is not a validation error.
func FieldErrors(err error) ([]FieldError, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Code != "validation_error" {
		return nil, false
	}
	return e.Fields, true
}

// MergeFieldErrors appends the extra field errors for fields that don't
// already have one.
func MergeFieldErrors(fields []FieldError, extra ...FieldError) []FieldError {
	seen := map[string]struct{}{}
	for _, f := range fields {
		seen[f.Field] = struct{}{}
	}
	for _, f := range extra {
		if _, ok := seen[f.Field]; ok {
			continue
		}
		seen[f.Field] = struct{}{}
		fields = append(fields, f)
	}
	return fields
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
		nil,
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
		nil,
	}
}
