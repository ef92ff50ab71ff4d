package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/deppfellow/fleet-gateway/internal/metrics"
	"github.com/deppfellow/fleet-gateway/internal/route"
	"github.com/deppfellow/fleet-gateway/internal/validation"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Dispatcher routes envelopes to the handler. It holds only read-only state
// and is safe for concurrent use.
type Dispatcher struct {
	table      *route.Table
	handler    Handler
	handlerCfg *config.HandlerConfig
	logger     *zerolog.Logger
	metrics    *metrics.Collector
}

// New creates a dispatcher. metrics may be nil.
func New(table *route.Table, handler Handler, handlerCfg *config.HandlerConfig, logger *zerolog.Logger, m *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		table:      table,
		handler:    handler,
		handlerCfg: handlerCfg,
		logger:     logger,
		metrics:    m,
	}
}

// Dispatch runs env through resolution, validation and the handler.
//
// Errors:
//   - *errs.HTTPError 404 ROUTE_NOT_FOUND when nothing matches
//   - *errs.HTTPError 400 VALIDATION_FAILED with the ordered field errors
//   - *HandlerError when the handler fails to produce a response
//
// A Response returned by the handler is passed through whatever its status.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope) (*Response, error) {
	start := time.Now()
	defer d.metrics.TrackInFlight()()

	log := d.loggerFor(ctx, env)
	log.Debug().Str("state", string(StateReceived)).Send()

	r, err := d.table.Resolve(env.Method, env.Path)
	if err != nil {
		d.finish(&log, StateRouteNotFound, metrics.UnmatchedRoute, metrics.OutcomeNotFound, start)
		return nil, errs.NewRouteNotFoundError(route.NormalizeMethod(env.Method), env.Path)
	}

	label := r.String()
	log = log.With().Str("route", label).Logger()
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.SetName(label)
		txn.AddAttribute("gateway.route", label)
	}
	log.Debug().Str("state", string(StateResolved)).Send()

	if fieldErrors := d.check(r, env); len(fieldErrors) > 0 {
		for _, fe := range fieldErrors {
			d.metrics.RecordValidationFailure(label, string(fe.Kind))
		}
		log = log.With().Int("field_errors", len(fieldErrors)).Logger()
		d.finish(&log, StateValidationFailed, label, metrics.OutcomeRejected, start)
		return nil, errs.NewValidationFailedError(validation.ToFieldErrors(fieldErrors))
	}
	log.Debug().Str("state", string(StateValidated)).Send()

	log.Debug().Str("state", string(StateInvoked)).Send()
	resp, err := d.invoke(ctx, env)
	if err != nil {
		log.Error().Err(err).Msg("backend handler failed")
		d.finish(&log, StateHandlerFailed, label, metrics.OutcomeHandlerError, start)
		return nil, &HandlerError{Route: label, Err: err}
	}

	log = log.With().Int("status", resp.StatusCode).Logger()
	d.finish(&log, StateResponded, label, metrics.OutcomeDispatched, start)
	return resp, nil
}

func (d *Dispatcher) invoke(ctx context.Context, env *Envelope) (*Response, error) {
	defer newrelic.FromContext(ctx).StartSegment("backend.handle").End()

	resp, err := d.handler.Handle(ctx, env, d.handlerCfg)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("handler returned no response")
	}
	return resp, nil
}

// check returns the parameter errors followed by the body errors.
func (d *Dispatcher) check(r *route.Route, env *Envelope) []validation.FieldError {
	var fieldErrors []validation.FieldError

	if r.ValidateParameters {
		for _, p := range r.Parameters {
			if !hasParameter(env, p) {
				fieldErrors = append(fieldErrors, validation.FieldError{
					Field: p.Key(),
					Kind:  validation.KindMissingRequired,
				})
			}
		}
	}

	if r.ValidateBody && r.Schema != "" {
		schema, _ := d.table.Schema(r.Schema)

		body, err := decodeBody(env.Body)
		if err != nil {
			fieldErrors = append(fieldErrors, validation.FieldError{
				Field: validation.RootField,
				Kind:  validation.KindMalformedBody,
			})
		} else {
			fieldErrors = append(fieldErrors, validation.Validate(schema, body).Errors...)
		}
	}

	return fieldErrors
}

func hasParameter(env *Envelope, p route.Parameter) bool {
	var (
		v  string
		ok bool
	)
	switch p.In {
	case route.InQueryString:
		v, ok = env.QueryParam(p.Name)
	case route.InHeader:
		v, ok = env.Header(p.Name)
	}
	return ok && v != ""
}

// decodeBody parses a JSON body, keeping numbers as json.Number. An empty
// body decodes to nil, which validates as an empty object.
func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return body, nil
}

// loggerFor prefers the request logger carried by ctx, which already has the
// request fields. The dispatcher's own logger gets them added.
func (d *Dispatcher) loggerFor(ctx context.Context, env *Envelope) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}

	fields := d.logger.With().
		Str("method", env.Method).
		Str("path", env.Path)
	if env.RequestID != "" {
		fields = fields.Str("request_id", env.RequestID)
	}
	return fields.Logger()
}

func (d *Dispatcher) finish(log *zerolog.Logger, state State, label, outcome string, start time.Time) {
	elapsed := time.Since(start)
	d.metrics.RecordDispatch(label, outcome, elapsed.Seconds())

	event := log.Info()
	if state == StateHandlerFailed {
		event = log.Warn()
	}
	event.
		Str("state", string(state)).
		Dur("duration", elapsed).
		Msg("request dispatched")
}
