// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request ids, request-scoped logging, CORS, body limits,
// New Relic tracing and panic recovery, and turn every error into
// the errs.HTTPError response shape.
package middleware
