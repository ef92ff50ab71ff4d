package middleware

import (
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups all middleware components used by the HTTP server so
// router setup receives one value.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers, body
	// limit and the global error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer attaches a request-scoped logger to each request.
	ContextEnhancer *ContextEnhancer

	// Tracing installs New Relic and annotates transactions.
	Tracing *TracingMiddleware

	// Events records rejected requests as New Relic custom events.
	Events *EventsMiddleware
}

// NewMiddlewares constructs all middleware components. When New Relic is
// not configured the tracing and event middleware pass requests through.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		Events:          NewEventsMiddleware(nrApp),
	}
}
