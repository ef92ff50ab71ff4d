package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/go-playground/validator/v10"
)

// NewStructValidator returns a validator that reports fields by their koanf
// key instead of the Go field name, so messages match the variables an
// operator actually sets.
func NewStructValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// StructErrors converts go-playground validator errors into field errors.
//
// Field names are the dotted namespace without the root type
// ("handler.admin_access_key"). Errors that are not validator errors are
// returned as a single entry on RootField.
func StructErrors(err error) []errs.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []errs.FieldError{{Field: RootField, Error: "invalid", Message: err.Error()}}
	}

	fieldErrors := make([]errs.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		var msg string
		switch fe.Tag() {
		case "required", "required_if":
			msg = "is required"
		case "min":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", fe.Param())
			}
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())
		case "url":
			msg = "must be a valid URL"
		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("%s:%s", fe.Tag(), fe.Param())
			} else {
				msg = fe.Tag()
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field:   field,
			Error:   fe.Tag(),
			Message: msg,
		})
	}

	return fieldErrors
}
