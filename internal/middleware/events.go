package middleware

import (
	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// Custom event types recorded in New Relic.
const (
	EventRouteNotFound    = "GatewayRouteNotFound"
	EventValidationFailed = "GatewayValidationFailed"
)

// EventsMiddleware records requests the gateway rejected before reaching
// the backend.
type EventsMiddleware struct {
	nrApp *newrelic.Application
}

func NewEventsMiddleware(nrApp *newrelic.Application) *EventsMiddleware {
	return &EventsMiddleware{nrApp: nrApp}
}

// RecordRejections records one custom event per rejected request, with the
// failing fields joined into a single attribute.
func (em *EventsMiddleware) RecordRejections() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil || em.nrApp == nil {
				return err
			}

			var httpErr *errs.HTTPError
			if !errors.As(err, &httpErr) {
				return err
			}

			attrs := map[string]interface{}{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"request_id": GetRequestID(c),
			}

			switch httpErr.Code {
			case errs.CodeRouteNotFound:
				em.nrApp.RecordCustomEvent(EventRouteNotFound, attrs)
			case errs.CodeValidationFailed:
				attrs["fields"] = fieldList(httpErr.Errors)
				attrs["error_count"] = len(httpErr.Errors)
				em.nrApp.RecordCustomEvent(EventValidationFailed, attrs)
			}

			return err
		}
	}
}

func fieldList(fieldErrors []errs.FieldError) string {
	out := ""
	for i, fe := range fieldErrors {
		if i > 0 {
			out += ","
		}
		out += fe.Field + ":" + fe.Error
	}
	return out
}
