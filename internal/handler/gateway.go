package handler

import (
	"time"

	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/middleware"
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// GatewayHandler passes every API request through the dispatcher.
type GatewayHandler struct {
	Handler
}

func NewGatewayHandler(s *server.Server) *GatewayHandler {
	return &GatewayHandler{
		Handler: NewHandler(s),
	}
}

// Dispatch is registered as the catch-all route. Errors are returned to the
// global error handler, which renders them.
func (h *GatewayHandler) Dispatch(c echo.Context) error {
	start := time.Now()

	env, err := newEnvelope(c)
	if err != nil {
		return err
	}

	resp, err := h.server.Dispatcher.Dispatch(c.Request().Context(), env)
	if err != nil {
		if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
			txn.AddAttribute("gateway.status", dispatch.StatusOf(err))
		}
		return err
	}

	middleware.GetLogger(c).Debug().
		Int("backend_status", resp.StatusCode).
		Dur("total_duration", time.Since(start)).
		Msg("backend response forwarded")

	return writeResponse(c, resp)
}
