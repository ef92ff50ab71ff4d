package handler

import (
	"github.com/deppfellow/fleet-gateway/internal/server"
)

// Handlers groups all HTTP handlers so router setup receives one value.
type Handlers struct {
	Gateway *GatewayHandler // Gateway dispatches every API request.
	Health  *HealthHandler  // Health serves /status.
	OpenAPI *OpenAPIHandler // OpenAPI serves the generated API document.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server) *Handlers {
	return &Handlers{
		Gateway: NewGatewayHandler(s),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
