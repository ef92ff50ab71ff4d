package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/fleet-gateway/internal/middleware"
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler exposes the endpoint load balancers and monitors poll to
// verify the service is alive and the backend's tables are reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns 200 when every table check passes and 503 otherwise.
//
// The body carries the overall status, timestamp, environment, route count
// and one entry per table under "checks".
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"backend":     h.server.Config.Backend.Mode,
		"routes":      h.server.Routes.Len(),
		"checks":      checks,
	}

	isHealthy := true

	if h.server.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.server.Config.Observability.HealthChecks.Timeout)
		defer cancel()

		for _, status := range h.server.DB.Check(ctx) {
			key := "table:" + status.Table

			if status.Err != nil {
				isHealthy = false
				checks[key] = map[string]interface{}{
					"status":        "unhealthy",
					"response_time": status.ResponseTime.String(),
					"error":         status.Err.Error(),
				}

				logger.Error().
					Err(status.Err).
					Str("table", status.Table).
					Dur("response_time", status.ResponseTime).
					Msg("table health check failed")

				h.recordEvent(map[string]interface{}{
					"check_type":       "table",
					"table":            status.Table,
					"operation":        "health_check",
					"error_type":       "table_unhealthy",
					"response_time_ms": status.ResponseTime.Milliseconds(),
					"error_message":    status.Err.Error(),
				})
				continue
			}

			checks[key] = map[string]interface{}{
				"status":        "healthy",
				"table_status":  status.Status,
				"response_time": status.ResponseTime.String(),
			}
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordEvent(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) recordEvent(attrs map[string]interface{}) {
	if h.server.LoggerService != nil && h.server.LoggerService.GetApplication() != nil {
		h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
	}
}
