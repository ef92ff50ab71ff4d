package router

import (
	"github.com/deppfellow/fleet-gateway/internal/handler"
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints that are not part of the API.
// They answer GET only.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.GET("/docs", h.OpenAPI.ServeOpenAPI)

	if s.Metrics != nil {
		r.GET(s.Config.Observability.Metrics.Path, echo.WrapHandler(s.Metrics.Handler()))
	}
}
