package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
)

// LambdaAPI is the part of the Lambda API the invoker uses.
// *lambda.Client satisfies it.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Client context keys carrying the table names to the function.
const (
	ClientContextUsersTable       = "usersTable"
	ClientContextTruckTable       = "truckTable"
	ClientContextReservationTable = "reservationTable"
)

// LambdaInvoker calls the backend function synchronously with an API
// Gateway proxy event and reads a proxy response back, so the function
// cannot tell it apart from an API Gateway integration.
//
// The admin secret stays in the gateway process; only the table names are
// sent, in the invocation's client context.
type LambdaInvoker struct {
	client       LambdaAPI
	functionName string
	timeout      time.Duration
}

// NewLambdaInvoker creates an invoker. A zero timeout leaves the deadline
// to the caller's context.
func NewLambdaInvoker(client LambdaAPI, functionName string, timeout time.Duration) *LambdaInvoker {
	return &LambdaInvoker{
		client:       client,
		functionName: functionName,
		timeout:      timeout,
	}
}

// Handle implements dispatch.Handler.
func (l *LambdaInvoker) Handle(ctx context.Context, env *dispatch.Envelope, cfg *config.HandlerConfig) (*dispatch.Response, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(ProxyRequest(env))
	if err != nil {
		return nil, fmt.Errorf("failed to encode proxy request: %w", err)
	}

	clientContext, err := encodeClientContext(cfg)
	if err != nil {
		return nil, err
	}

	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		ClientContext:  aws.String(clientContext),
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", l.functionName, err)
	}

	if out.FunctionError != nil {
		return nil, fmt.Errorf("function %s failed (%s): %s", l.functionName, aws.ToString(out.FunctionError), out.Payload)
	}

	var proxyResp events.APIGatewayProxyResponse
	if err := json.Unmarshal(out.Payload, &proxyResp); err != nil {
		return nil, fmt.Errorf("failed to decode proxy response: %w", err)
	}

	return FromProxyResponse(&proxyResp)
}

func encodeClientContext(cfg *config.HandlerConfig) (string, error) {
	cc := lambdacontext.ClientContext{
		Custom: map[string]string{
			ClientContextUsersTable:       cfg.UsersTable,
			ClientContextTruckTable:       cfg.TruckTable,
			ClientContextReservationTable: cfg.ReservationTable,
		},
	}

	raw, err := json.Marshal(cc)
	if err != nil {
		return "", fmt.Errorf("failed to encode client context: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ProxyRequest renders an envelope as an API Gateway REST proxy event.
// Bodies that are not valid UTF-8 are base64 encoded.
func ProxyRequest(env *dispatch.Envelope) events.APIGatewayProxyRequest {
	req := events.APIGatewayProxyRequest{
		Resource:              env.Path,
		Path:                  env.Path,
		HTTPMethod:            env.Method,
		Headers:               env.Headers,
		QueryStringParameters: env.Query,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  env.RequestID,
			HTTPMethod: env.Method,
			Path:       env.Path,
		},
	}

	if utf8.Valid(env.Body) {
		req.Body = string(env.Body)
	} else {
		req.Body = base64.StdEncoding.EncodeToString(env.Body)
		req.IsBase64Encoded = true
	}

	return req
}

// FromProxyResponse converts a proxy response into a dispatch response.
// Multi-value headers are folded into a single comma-separated value.
func FromProxyResponse(resp *events.APIGatewayProxyResponse) (*dispatch.Response, error) {
	if resp.StatusCode == 0 {
		return nil, fmt.Errorf("proxy response has no status code")
	}

	headers := make(map[string]string, len(resp.Headers)+len(resp.MultiValueHeaders))
	for k, v := range resp.Headers {
		headers[k] = v
	}
	for k, vs := range resp.MultiValueHeaders {
		if _, ok := headers[k]; !ok && len(vs) > 0 {
			headers[k] = strings.Join(vs, ", ")
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = decoded
	}

	return &dispatch.Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}
