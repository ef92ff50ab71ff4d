// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares, the system routes and the catch-all route
// that hands every other request to the dispatcher.
package router

import (
	"github.com/deppfellow/fleet-gateway/internal/handler"
	"github.com/deppfellow/fleet-gateway/internal/middleware"
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the echo instance.
//
// Middleware order matters: the request id must exist before the New Relic
// transaction is annotated, and the transaction before the request logger is
// built, so every log line carries both.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.BodyLimit(),
		middlewares.Events.RecordRejections(),
	)

	registerSystemRoutes(router, s, h)

	// Everything else belongs to the route table.
	router.Any("/*", h.Gateway.Dispatch)

	return router
}
