package validation

import (
	"encoding/json"
	"reflect"

	"github.com/deppfellow/fleet-gateway/internal/errs"
)

// RootField names the body itself in a FieldError.
const RootField = "(root)"

// Kind classifies a validation failure.
type Kind string

const (
	// KindTypeMismatch: a declared field is present with the wrong JSON type.
	KindTypeMismatch Kind = "TypeMismatch"

	// KindMissingRequired: a required field (or parameter) is absent or null.
	KindMissingRequired Kind = "MissingRequired"

	// KindMalformedBody: the body is not parseable JSON.
	KindMalformedBody Kind = "MalformedBody"
)

// FieldError is one violation found by Validate.
type FieldError struct {
	Field string
	Kind  Kind
}

// Result is the outcome of validating one body.
type Result struct {
	Valid  bool
	Errors []FieldError
}

func newResult(fieldErrors []FieldError) Result {
	return Result{Valid: len(fieldErrors) == 0, Errors: fieldErrors}
}

// Validate checks body against schema.
//
// body is a decoded JSON value (encoding/json output, with or without
// UseNumber). Rules, applied per declared property in declaration order:
//   - required and absent or null: MissingRequired
//   - present with a value of the wrong type: TypeMismatch
//   - fields not declared by the schema are ignored
//
// A body that is not a JSON object yields a single TypeMismatch on RootField.
// A nil body is treated as an empty object.
func Validate(schema *Schema, body any) Result {
	if body == nil {
		body = map[string]any{}
	}

	object, ok := body.(map[string]any)
	if !ok {
		return newResult([]FieldError{{Field: RootField, Kind: KindTypeMismatch}})
	}

	var fieldErrors []FieldError
	for _, p := range schema.Properties {
		value, present := object[p.Name]

		if !present || value == nil {
			if schema.IsRequired(p.Name) {
				fieldErrors = append(fieldErrors, FieldError{Field: p.Name, Kind: KindMissingRequired})
				continue
			}
			if !present {
				continue
			}
		}

		if !hasType(value, p.Type) {
			fieldErrors = append(fieldErrors, FieldError{Field: p.Name, Kind: KindTypeMismatch})
		}
	}

	return newResult(fieldErrors)
}

func hasType(value any, t Type) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeNumber:
		return isNumber(value)
	}
	return false
}

func isNumber(value any) bool {
	if _, ok := value.(json.Number); ok {
		return true
	}
	if value == nil {
		return false
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Message returns the human-readable text for a failure kind.
func (k Kind) Message() string {
	switch k {
	case KindMissingRequired:
		return "is required"
	case KindTypeMismatch:
		return "has the wrong type"
	case KindMalformedBody:
		return "must be valid JSON"
	}
	return string(k)
}

// ToFieldErrors converts validation failures into the client error shape,
// keeping their order.
func ToFieldErrors(fieldErrors []FieldError) []errs.FieldError {
	out := make([]errs.FieldError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, errs.FieldError{
			Field:   fe.Field,
			Error:   string(fe.Kind),
			Message: fe.Kind.Message(),
		})
	}
	return out
}
