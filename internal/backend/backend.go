// Package backend provides the dispatch.Handler implementations the gateway
// can forward to.
//
//   - LambdaInvoker: synchronous invoke of the backend function
//   - HTTPForwarder: plain HTTP forwarding to a locally served backend
//   - Func: an in-process function
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/metrics"
)

// Func adapts an ordinary function to dispatch.Handler.
type Func func(ctx context.Context, env *dispatch.Envelope, cfg *config.HandlerConfig) (*dispatch.Response, error)

func (f Func) Handle(ctx context.Context, env *dispatch.Envelope, cfg *config.HandlerConfig) (*dispatch.Response, error) {
	return f(ctx, env, cfg)
}

// New builds the handler selected by cfg.Backend.Mode.
func New(cfg *config.Config, awsCfg aws.Config, m *metrics.Collector) (dispatch.Handler, error) {
	var h dispatch.Handler

	switch cfg.Backend.Mode {
	case config.BackendLambda:
		h = NewLambdaInvoker(lambda.NewFromConfig(awsCfg), cfg.Backend.FunctionName, cfg.Backend.Timeout)
	case config.BackendHTTP:
		forwarder, err := NewHTTPForwarder(cfg.Backend.URL, cfg.Backend.Timeout)
		if err != nil {
			return nil, err
		}
		h = forwarder
	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Backend.Mode)
	}

	return Instrument(cfg.Backend.Mode, h, m), nil
}

// Instrument records the duration and failures of every call to h.
func Instrument(name string, h dispatch.Handler, m *metrics.Collector) dispatch.Handler {
	if m == nil {
		return h
	}

	return Func(func(ctx context.Context, env *dispatch.Envelope, cfg *config.HandlerConfig) (*dispatch.Response, error) {
		start := time.Now()
		resp, err := h.Handle(ctx, env, cfg)
		m.RecordBackend(name, time.Since(start).Seconds(), err)
		return resp, err
	})
}
