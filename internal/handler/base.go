// Package handler is the first layer after the router.
//
// The gateway handler turns every non-system request into a dispatch
// envelope and writes the backend's response back untouched; the system
// handlers serve health, API documentation and metrics.
package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/middleware"
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/labstack/echo/v4"
)

// Handler is the base handler type that holds shared application dependencies.
//
// Concrete handlers embed it to reach config, logger, dispatcher and
// database through *server.Server.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// newEnvelope reads the request into a dispatch envelope. Repeated headers
// and query parameters are joined with commas.
func newEnvelope(c echo.Context) (*dispatch.Envelope, error) {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(req.Header))
	for k, vs := range req.Header {
		headers[k] = strings.Join(vs, ",")
	}

	query := make(map[string]string)
	for k, vs := range c.QueryParams() {
		query[k] = strings.Join(vs, ",")
	}

	return &dispatch.Envelope{
		Method:    req.Method,
		Path:      req.URL.Path,
		Headers:   headers,
		Query:     query,
		Body:      body,
		RequestID: middleware.GetRequestID(c),
	}, nil
}

// writeResponse writes a backend response as is: its status, its headers
// and its body.
func writeResponse(c echo.Context, resp *dispatch.Response) error {
	header := c.Response().Header()
	for k, v := range resp.Headers {
		if http.CanonicalHeaderKey(k) == echo.HeaderContentLength {
			continue
		}
		header.Set(k, v)
	}

	c.Response().WriteHeader(resp.StatusCode)

	if c.Request().Method == http.MethodHead || len(resp.Body) == 0 {
		return nil
	}

	if _, err := c.Response().Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write response body: %w", err)
	}
	return nil
}
