package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/deppfellow/fleet-gateway/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerCfg = &config.HandlerConfig{
	AdminAccessKey:   "s3cret",
	UsersTable:       "users",
	TruckTable:       "trucks",
	ReservationTable: "reservations",
}

type fakeLambda struct {
	input  *lambda.InvokeInput
	output *lambda.InvokeOutput
	err    error
}

func (f *fakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = in
	return f.output, f.err
}

func proxyPayload(t *testing.T, resp events.APIGatewayProxyResponse) []byte {
	t.Helper()
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	return raw
}

func TestLambdaInvoker_RoundTrip(t *testing.T) {
	client := &fakeLambda{}
	client.output = &lambda.InvokeOutput{
		StatusCode: 200,
		Payload: proxyPayload(t, events.APIGatewayProxyResponse{
			StatusCode:        201,
			Headers:           map[string]string{"Content-Type": "application/json"},
			MultiValueHeaders: map[string][]string{"Set-Cookie": {"a=1", "b=2"}},
			Body:              `{"created":true}`,
		}),
	}

	invoker := NewLambdaInvoker(client, "GoManagementSoftwareLambda", time.Second)
	env := &dispatch.Envelope{
		Method:    http.MethodPost,
		Path:      "/truck/update",
		Headers:   map[string]string{"Content-Type": "application/json"},
		Query:     map[string]string{"dry": "1"},
		Body:      []byte(`{"vin":"V1","type":"van"}`),
		RequestID: "req-1",
	}

	resp, err := invoker.Handle(context.Background(), env, handlerCfg)
	require.NoError(t, err)

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, `{"created":true}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "a=1, b=2", resp.Headers["Set-Cookie"])

	in := client.input
	require.NotNil(t, in)
	assert.Equal(t, "GoManagementSoftwareLambda", aws.ToString(in.FunctionName))

	var event events.APIGatewayProxyRequest
	require.NoError(t, json.Unmarshal(in.Payload, &event))
	assert.Equal(t, http.MethodPost, event.HTTPMethod)
	assert.Equal(t, "/truck/update", event.Path)
	assert.Equal(t, `{"vin":"V1","type":"van"}`, event.Body)
	assert.Equal(t, "1", event.QueryStringParameters["dry"])
	assert.Equal(t, "req-1", event.RequestContext.RequestID)

	rawCC, err := base64.StdEncoding.DecodeString(aws.ToString(in.ClientContext))
	require.NoError(t, err)
	var cc lambdacontext.ClientContext
	require.NoError(t, json.Unmarshal(rawCC, &cc))
	assert.Equal(t, "users", cc.Custom[ClientContextUsersTable])
	assert.Equal(t, "trucks", cc.Custom[ClientContextTruckTable])
	assert.Equal(t, "reservations", cc.Custom[ClientContextReservationTable])

	assert.NotContains(t, string(rawCC), "s3cret")
	assert.NotContains(t, string(in.Payload), "s3cret")
}

func TestLambdaInvoker_FunctionError(t *testing.T) {
	client := &fakeLambda{output: &lambda.InvokeOutput{
		StatusCode:    200,
		FunctionError: aws.String("Unhandled"),
		Payload:       []byte(`{"errorMessage":"boom"}`),
	}}

	_, err := NewLambdaInvoker(client, "fn", 0).Handle(context.Background(), &dispatch.Envelope{Method: "POST", Path: "/ping"}, handlerCfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unhandled")
}

func TestLambdaInvoker_InvokeError(t *testing.T) {
	boom := errors.New("throttled")
	client := &fakeLambda{err: boom}

	_, err := NewLambdaInvoker(client, "fn", 0).Handle(context.Background(), &dispatch.Envelope{Method: "POST", Path: "/ping"}, handlerCfg)

	assert.ErrorIs(t, err, boom)
}

func TestProxyRequest_BinaryBody(t *testing.T) {
	body := []byte{0xff, 0xfe, 0x00}

	req := ProxyRequest(&dispatch.Envelope{Method: "POST", Path: "/reset", Body: body})

	assert.True(t, req.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString(body), req.Body)
}

func TestFromProxyResponse(t *testing.T) {
	resp, err := FromProxyResponse(&events.APIGatewayProxyResponse{
		StatusCode:      200,
		Body:            base64.StdEncoding.EncodeToString([]byte("png")),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "png", string(resp.Body))

	_, err = FromProxyResponse(&events.APIGatewayProxyResponse{})
	assert.Error(t, err)
}

func TestHTTPForwarder(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"vin taken"}`))
	}))
	defer upstream.Close()

	forwarder, err := NewHTTPForwarder(upstream.URL+"/dev/", time.Second)
	require.NoError(t, err)

	env := &dispatch.Envelope{
		Method:    http.MethodPost,
		Path:      "/truck/update",
		Headers:   map[string]string{"Content-Type": "application/json", "Host": "example.com"},
		Query:     map[string]string{"a": "b"},
		Body:      []byte(`{"vin":"V1"}`),
		RequestID: "req-9",
	}

	resp, err := forwarder.Handle(context.Background(), env, handlerCfg)
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, `{"error":"vin taken"}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	require.NotNil(t, got)
	assert.Equal(t, "/dev/truck/update", got.URL.Path)
	assert.Equal(t, "b", got.URL.Query().Get("a"))
	assert.Equal(t, `{"vin":"V1"}`, string(gotBody))
	assert.Equal(t, "users", got.Header.Get(HeaderUsersTable))
	assert.Equal(t, "req-9", got.Header.Get("X-Request-ID"))
	assert.Empty(t, got.Header.Get("X-Admin-Key"))
}

func TestHTTPForwarder_ResponseSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", maxResponseBody, false},
		{"over limit", maxResponseBody + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte("a"), tt.size))
			}))
			defer upstream.Close()

			forwarder, err := NewHTTPForwarder(upstream.URL, 5*time.Second)
			require.NoError(t, err)

			resp, err := forwarder.Handle(context.Background(), &dispatch.Envelope{Method: "POST", Path: "/truck/list"}, handlerCfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrResponseTooLarge)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Body, tt.size)
		})
	}
}

func TestHTTPForwarder_Unreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	forwarder, err := NewHTTPForwarder(url, time.Second)
	require.NoError(t, err)

	_, err = forwarder.Handle(context.Background(), &dispatch.Envelope{Method: "POST", Path: "/ping"}, handlerCfg)
	assert.Error(t, err)
}

func TestNewHTTPForwarder_InvalidURL(t *testing.T) {
	_, err := NewHTTPForwarder("localhost:3000", time.Second)
	assert.Error(t, err)
}

func TestNew_SelectsByMode(t *testing.T) {
	cfg := &config.Config{Backend: config.BackendConfig{Mode: config.BackendHTTP, URL: "http://localhost:3000", Timeout: time.Second}}
	h, err := New(cfg, aws.Config{Region: "us-east-1"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &HTTPForwarder{}, h)

	cfg.Backend = config.BackendConfig{Mode: config.BackendLambda, FunctionName: "fn", Timeout: time.Second}
	h, err = New(cfg, aws.Config{Region: "us-east-1"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LambdaInvoker{}, h)

	cfg.Backend.Mode = "grpc"
	_, err = New(cfg, aws.Config{}, nil)
	assert.Error(t, err)
}

func TestInstrument(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	failing := Func(func(context.Context, *dispatch.Envelope, *config.HandlerConfig) (*dispatch.Response, error) {
		return nil, errors.New("down")
	})

	_, err := Instrument("lambda", failing, m).Handle(context.Background(), &dispatch.Envelope{}, handlerCfg)

	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendErrors.WithLabelValues("lambda")))
}
