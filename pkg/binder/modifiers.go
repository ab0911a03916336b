package binder

import (
	"context"
	"reflect"

	"github.com/go-playground/mold/v4"
	"github.com/shishobooks/catalog/pkg/identifiers"
)

const isbnModifier = "isbn"

// normalizeISBN strips the label and separators from an ISBN so that
// "978-1-234-56789-0" validates and is stored as "9781234567890".
func normalizeISBN(_ context.Context, fl mold.FieldLevel) error {
	if fl.Field().Kind() == reflect.String {
		fl.Field().SetString(identifiers.NormalizeISBN(fl.Field().String()))
	}
	return nil
}
