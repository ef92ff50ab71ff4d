package errs

import (
	"net/http"
)

const (
	// CodeRouteNotFound is returned when no route matches method and path.
	CodeRouteNotFound = "ROUTE_NOT_FOUND"

	// CodeValidationFailed is returned when a request violates its route's schema.
	CodeValidationFailed = "VALIDATION_FAILED"
)

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// This supports extra payload:
//   - code: optional custom code string (if nil, defaults to "BAD_REQUEST")
//   - errors: optional slice of field errors (validation errors)
func NewBadRequestError(message string, override bool, code *string, errors []FieldError) *HTTPError {
	// http.StatusText(400) => "Bad Request" => "BAD_REQUEST"
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))

	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
//
// Supports optional custom code override similar to NewBadRequestError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))

	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewRouteNotFoundError is the 404 returned when no route matches.
func NewRouteNotFoundError(method, path string) *HTTPError {
	code := CodeRouteNotFound
	return NewNotFoundError("No route for "+method+" "+path, true, &code)
}

// NewValidationFailedError is the 400 returned when a request body or its
// parameters violate the route's schema. errors keeps the validator's order.
func NewValidationFailedError(errors []FieldError) *HTTPError {
	code := CodeValidationFailed
	return NewBadRequestError("Validation failed", true, &code, errors)
}

// NewBadGatewayError creates a 502 Bad Gateway HTTPError.
//
// Used when the backend handler could not produce a response at all. The
// message is generic; the underlying failure is logged, never sent.
func NewBadGatewayError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadGateway)),
		Message:  http.StatusText(http.StatusBadGateway),
		Status:   http.StatusBadGateway,
		Override: false,
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// Note:
//   - message is the generic status text, not the real internal error message.
//   - Override is false: generic 500s are never rewritten.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}
