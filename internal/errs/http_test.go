package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "BAD_GATEWAY", MakeUpperCaseWithUnderscores("Bad Gateway"))
	assert.Equal(t, "NOT_FOUND", MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound)))
}

func TestNewValidationFailedError(t *testing.T) {
	fieldErrors := []FieldError{
		{Field: "password", Error: "MissingRequired"},
		{Field: "email", Error: "TypeMismatch"},
	}

	err := NewValidationFailedError(fieldErrors)

	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.True(t, err.Override)
	assert.Equal(t, fieldErrors, err.Errors)
}

func TestNewRouteNotFoundError(t *testing.T) {
	err := NewRouteNotFoundError(http.MethodPost, "/unknown/path")

	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, CodeRouteNotFound, err.Code)
	assert.Contains(t, err.Message, "/unknown/path")
}

func TestHTTPErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NewBadGatewayError())

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
}

func TestWithMessageCopies(t *testing.T) {
	original := NewInternalServerError()
	copied := original.WithMessage("boom")

	assert.Equal(t, "boom", copied.Message)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), original.Message)
	assert.Equal(t, original.Code, copied.Code)
}
