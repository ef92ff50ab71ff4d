// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches a client, whichever transport carried the
// request, is rendered as an HTTPError:
//
//   - consistent JSON shape for route misses, validation failures and
//     backend failures
//   - field-level entries for request body and parameter validation
//   - plays nicely with the standard errors package (errors.As / errors.Is)
package errs

import "strings"

// FieldError represents a single field-level validation failure.
// Example:
//
//	{ "field": "password", "error": "MissingRequired", "message": "is required" }
type FieldError struct {
	// Field is the body field or parameter the error relates to (e.g. "email").
	Field string `json:"field"`

	// Error is the machine-readable failure kind (e.g. "TypeMismatch").
	Error string `json:"error"`

	// Message is the human-readable explanation.
	Message string `json:"message,omitempty"`
}

// HTTPError is the error type rendered to API clients.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "VALIDATION_FAILED").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: lets the error handler know the message is safe to show as-is.
//   - Errors: ordered list of per-field errors (validation).
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	// Errors holds field-level validation errors in the order they were found.
	Errors []FieldError `json:"errors"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError.
//
// It does NOT compare Code/Status; use errors.As and inspect the fields
// when the specific error matters.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
	}
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Gateway" -> "BAD_GATEWAY"
//
// Used to create stable machine-readable error codes from HTTP status text.
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
