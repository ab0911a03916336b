package binder

import (
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	dateRE   = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)
	digitsRE = regexp.MustCompile(`^[0-9]*$`)
)

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. The reason the empty string is allowed is that this validator can be
// used to clear out values. However, this is only useful in that case, so if
// you're using this validator but want the value to be required, add a `ne=` to
// the validate tag so that the empty string is disallowed.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if !dateRE.MatchString(value) {
		return false
	}
	_, err := time.Parse(time.DateOnly, value)
	return err == nil
}

func digitsValidator(fl validator.FieldLevel) bool {
	return digitsRE.MatchString(fl.Field().String())
}

// decimalsValidator ensures a float has at most two decimal places.
func decimalsValidator(fl validator.FieldLevel) bool {
	v := fl.Field().Float() * 100
	return math.Abs(v-math.Round(v)) < 1e-6
}

// notFutureValidator rejects YYYY-MM-DD dates after today and integer years
// after the current year. Other kinds pass.
func notFutureValidator(fl validator.FieldLevel) bool {
	now := time.Now()
	field := fl.Field()

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		if field.String() == "" {
			return true
		}
		d, err := time.Parse(time.DateOnly, field.String())
		if err != nil {
			return true
		}
		return !d.After(now)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() <= int64(now.Year())
	default:
		return true
	}
}

// urlValidator accepts the empty string or an absolute http(s) URL.
func urlValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return false
	}
	u, err := url.Parse(value)
	return err == nil && u.Host != ""
}
