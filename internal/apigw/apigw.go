// Package apigw serves the gateway as a Lambda function behind an API
// Gateway REST proxy integration.
package apigw

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/deppfellow/fleet-gateway/internal/validation"
	"github.com/rs/zerolog"
)

// Adapter translates proxy events to envelopes and dispatch results back to
// proxy responses.
type Adapter struct {
	dispatcher *dispatch.Dispatcher
	logger     *zerolog.Logger
}

func New(dispatcher *dispatch.Dispatcher, logger *zerolog.Logger) *Adapter {
	return &Adapter{dispatcher: dispatcher, logger: logger}
}

// Handle is the Lambda entry point. It never returns an error: every
// failure is rendered as a response so API Gateway relays it to the client.
func (a *Adapter) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	env, err := Envelope(ctx, req)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", req.Path).Msg("undecodable proxy body")
		fieldErrors := validation.ToFieldErrors([]validation.FieldError{
			{Field: validation.RootField, Kind: validation.KindMalformedBody},
		})
		return ProxyResponse(dispatch.ErrorResponse(errs.NewValidationFailedError(fieldErrors))), nil
	}

	logger := a.logger.With().Str("request_id", env.RequestID).Logger()
	ctx = logger.WithContext(ctx)

	resp, err := a.dispatcher.Dispatch(ctx, env)
	if err != nil {
		resp = dispatch.ErrorResponse(err)
	}

	return ProxyResponse(resp), nil
}

// Envelope builds the dispatch envelope for a proxy event. Multi-value
// headers and query parameters not present in the single-value maps are
// joined with commas.
func Envelope(ctx context.Context, req events.APIGatewayProxyRequest) (*dispatch.Envelope, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	requestID := req.RequestContext.RequestID
	if requestID == "" {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			requestID = lc.AwsRequestID
		}
	}

	return &dispatch.Envelope{
		Method:    req.HTTPMethod,
		Path:      req.Path,
		Headers:   merge(req.Headers, req.MultiValueHeaders),
		Query:     merge(req.QueryStringParameters, req.MultiValueQueryStringParameters),
		Body:      body,
		RequestID: requestID,
	}, nil
}

func merge(single map[string]string, multi map[string][]string) map[string]string {
	out := make(map[string]string, len(single)+len(multi))
	for k, v := range single {
		out[k] = v
	}
	for k, vs := range multi {
		if _, ok := out[k]; !ok && len(vs) > 0 {
			out[k] = strings.Join(vs, ",")
		}
	}
	return out
}

// ProxyResponse renders a dispatch response for API Gateway. Bodies that
// are not valid UTF-8 are base64 encoded.
func ProxyResponse(resp *dispatch.Response) events.APIGatewayProxyResponse {
	out := events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}

	if utf8.Valid(resp.Body) {
		out.Body = string(resp.Body)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(resp.Body)
		out.IsBase64Encoded = true
	}

	return out
}
