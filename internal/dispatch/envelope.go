// Package dispatch runs one request through the gateway: resolve the route,
// validate what the route asks to validate, invoke the backend handler
// once, and hand its response back untouched.
//
// Per request the dispatcher moves through
//
//	Received -> Resolved -> Validated -> Invoked -> Responded
//
// and stops early in RouteNotFound or ValidationFailed, in which case the
// handler is never called.
package dispatch

import (
	"context"
	"strings"

	"github.com/deppfellow/fleet-gateway/internal/config"
)

// Envelope is the transport-independent request handed to the dispatcher
// and, unchanged, to the backend handler.
type Envelope struct {
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Headers   map[string]string `json:"headers,omitempty"`
	Query     map[string]string `json:"query,omitempty"`
	Body      []byte            `json:"body,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// Header looks a header up case-insensitively.
func (e *Envelope) Header(name string) (string, bool) {
	if v, ok := e.Headers[name]; ok {
		return v, true
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// QueryParam returns a query string parameter.
func (e *Envelope) QueryParam(name string) (string, bool) {
	v, ok := e.Query[name]
	return v, ok
}

// Response is what the backend handler produced. The gateway forwards it
// as is.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
}

// Handler is the backend that owns the business logic behind every route.
//
// It is called at most once per request, only for requests that resolved
// and passed validation, with the process-wide handler configuration.
type Handler interface {
	Handle(ctx context.Context, env *Envelope, cfg *config.HandlerConfig) (*Response, error)
}
