package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/pkg/errors"
)

// HandlerError wraps a failure of the backend handler itself, as opposed to
// an error response it returned.
type HandlerError struct {
	Route string
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failed for %s: %v", e.Route, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// ToHTTPError maps a dispatch error to what the client sees:
//   - *errs.HTTPError as is (route miss, validation failure)
//   - *HandlerError as an opaque 502
//   - anything else as an opaque 500
func ToHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		return errs.NewBadGatewayError()
	}

	return errs.NewInternalServerError()
}

// ErrorResponse renders a dispatch error as a JSON Response, for transports
// that do not have their own error handler.
func ErrorResponse(err error) *Response {
	httpErr := ToHTTPError(err)

	body, marshalErr := json.Marshal(httpErr)
	if marshalErr != nil {
		httpErr = errs.NewInternalServerError()
		body, _ = json.Marshal(httpErr)
	}

	return &Response{
		StatusCode: httpErr.Status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

// StatusOf returns the status code the client receives for err.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return ToHTTPError(err).Status
}
