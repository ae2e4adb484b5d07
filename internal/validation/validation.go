// Package validation contains the request validation rules for the API.
//
// It wraps a single go-playground/validator instance, registers the
// custom rules used by the book DTO tags, and turns validator errors
// into a field-level format clients can act on.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bookapi/internal/model"
)

// isbnPattern accepts ISBN-10 or ISBN-13 as plain digit strings.
var isbnPattern = regexp.MustCompile(`^\d{10}(\d{3})?$`)

// validate is the shared validator instance. Validators are safe for
// concurrent use and cache struct metadata, so one instance is reused.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json tag names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("notblank", notBlank))
	must(v.RegisterValidation("genre", validGenre))
	must(v.RegisterValidation("pubyear", notFutureYear))
	must(v.RegisterValidation("isbn1013", validISBN))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// notBlank rejects strings that are empty or whitespace only.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validGenre checks membership in the genre enum.
func validGenre(fl validator.FieldLevel) bool {
	return model.Genre(fl.Field().String()).Valid()
}

// notFutureYear rejects publication years after the current year.
func notFutureYear(fl validator.FieldLevel) bool {
	return int(fl.Field().Int()) <= time.Now().Year()
}

// validISBN checks the ISBN-10/ISBN-13 digit format.
func validISBN(fl validator.FieldLevel) bool {
	return isbnPattern.MatchString(fl.Field().String())
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Struct validates v against its validate tags and returns one
// FieldError per failed rule. A nil slice means v is valid.
func Struct(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: v was not a struct.
		return []FieldError{{Field: "", Rule: "struct", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("%s cannot be empty or only whitespace", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "genre":
		return fmt.Sprintf("%s must be one of the supported genres", fe.Field())
	case "pubyear":
		return fmt.Sprintf("%s cannot be greater than %d", fe.Field(), time.Now().Year())
	case "isbn1013":
		return fmt.Sprintf("%s must be a 10 or 13 digit ISBN", fe.Field())
	default:
		return fmt.Sprintf("%s failed rule %s", fe.Field(), fe.Tag())
	}
}
