package apigw

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/deppfellow/fleet-gateway/internal/backend"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/deppfellow/fleet-gateway/internal/route"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, calls *int) *Adapter {
	t.Helper()

	table, err := route.Load("")
	require.NoError(t, err)

	h := backend.Func(func(_ context.Context, env *dispatch.Envelope, _ *config.HandlerConfig) (*dispatch.Response, error) {
		*calls++
		return &dispatch.Response{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"path":"` + env.Path + `"}`),
		}, nil
	})

	logger := zerolog.Nop()
	d := dispatch.New(table, h, &config.HandlerConfig{AdminAccessKey: "k"}, &logger, nil)
	return New(d, &logger)
}

func TestHandle_Dispatched(t *testing.T) {
	var calls int
	a := newAdapter(t, &calls)

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/user/signin",
		Body:       `{"email":"a@b.c","password":"pw"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"path":"/user/signin"}`, resp.Body)
	assert.Equal(t, 1, calls)
}

func TestHandle_ValidationFailed(t *testing.T) {
	var calls int
	a := newAdapter(t, &calls)

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/user/signin",
		Body:       `{"email":"a@b.c"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, calls)

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "password", body.Errors[0].Field)
}

func TestHandle_RouteNotFound(t *testing.T) {
	var calls int
	a := newAdapter(t, &calls)

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/nope"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, calls)
}

func TestHandle_BadBase64Body(t *testing.T) {
	var calls int
	a := newAdapter(t, &calls)

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/ping",
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, calls)
}

func TestEnvelope(t *testing.T) {
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-1"})

	env, err := Envelope(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:                      http.MethodPost,
		Path:                            "/reset",
		Headers:                         map[string]string{"Content-Type": "application/json"},
		MultiValueHeaders:               map[string][]string{"Accept": {"a", "b"}},
		MultiValueQueryStringParameters: map[string][]string{"ids": {"1", "2"}},
		Body:                            base64.StdEncoding.EncodeToString([]byte(`{}`)),
		IsBase64Encoded:                 true,
	})
	require.NoError(t, err)

	assert.Equal(t, "aws-1", env.RequestID)
	assert.Equal(t, `{}`, string(env.Body))
	assert.Equal(t, "a,b", env.Headers["Accept"])
	assert.Equal(t, "1,2", env.Query["ids"])
}

func TestProxyResponse_Binary(t *testing.T) {
	out := ProxyResponse(&dispatch.Response{StatusCode: 200, Body: []byte{0xff}})

	assert.True(t, out.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff}), out.Body)
}
