// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the DynamoDB client used for table health checks
//   - route table, backend handler and dispatcher
//   - Prometheus collector
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/fleet-gateway/internal/backend"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/database"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/lib"
	"github.com/deppfellow/fleet-gateway/internal/metrics"
	"github.com/deppfellow/fleet-gateway/internal/route"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/fleet-gateway/internal/logger"
)

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself; the *http.Server is configured in
// SetupHTTPServer.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// LoggerService holds the New Relic application, which may be nil.
	LoggerService *loggerPkg.LoggerService

	DB         *database.Database
	Routes     *route.Table
	Dispatcher *dispatch.Dispatcher

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	httpServer *http.Server
}

// New builds the route table, the backend client and the dispatcher.
//
// A route catalog that breaks any table invariant is returned as an error;
// the caller is expected to abort startup.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	routes, err := route.Load(cfg.Routes.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	logger.Info().
		Int("routes", routes.Len()).
		Strs("models", routes.SchemaNames()).
		Msg("route table built")

	var collector *metrics.Collector
	if cfg.Observability.Metrics.Enabled {
		collector = metrics.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := lib.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	handler, err := backend.New(cfg, awsCfg, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	var db *database.Database
	if cfg.Observability.HealthChecks.Enabled {
		db = database.New(cfg, awsCfg, logger)
	}

	return NewWithHandler(cfg, logger, loggerService, routes, handler, db, collector), nil
}

// NewWithHandler assembles a Server from already built parts. db and
// collector may be nil.
func NewWithHandler(
	cfg *config.Config,
	logger *zerolog.Logger,
	loggerService *loggerPkg.LoggerService,
	routes *route.Table,
	handler dispatch.Handler,
	db *database.Database,
	collector *metrics.Collector,
) *Server {
	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Routes:        routes,
		Dispatcher:    dispatch.New(routes, handler, &cfg.Handler, logger, collector),
		Metrics:       collector,
	}
}

// SetupHTTPServer configures the internal net/http server.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("backend", s.Config.Backend.Mode).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then releases the remaining dependencies.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database client: %w", err)
		}
	}

	if s.LoggerService != nil {
		s.LoggerService.Shutdown()
	}

	return nil
}
