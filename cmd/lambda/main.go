package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/deppfellow/fleet-gateway/internal/apigw"
	"github.com/deppfellow/fleet-gateway/internal/backend"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/lib"
	"github.com/deppfellow/fleet-gateway/internal/logger"
	"github.com/deppfellow/fleet-gateway/internal/route"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.NewLogger(cfg.Observability)

	routes, err := route.Load(cfg.Routes.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load routes")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	awsCfg, err := lib.LoadAWSConfig(ctx, cfg.AWS)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load aws config")
	}

	// Metrics have no scrape endpoint inside Lambda.
	handler, err := backend.New(cfg, awsCfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend")
	}

	dispatcher := dispatch.New(routes, handler, &cfg.Handler, &log, nil)

	log.Info().
		Int("routes", routes.Len()).
		Str("backend", cfg.Backend.Mode).
		Msg("lambda gateway ready")

	lambda.Start(apigw.New(dispatcher, &log).Handle)
}
