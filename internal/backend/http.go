package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/deppfellow/fleet-gateway/internal/dispatch"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Headers carrying the table names to an HTTP backend.
const (
	HeaderUsersTable       = "X-Users-Table"
	HeaderTruckTable       = "X-Truck-Table"
	HeaderReservationTable = "X-Reservation-Table"
)

// maxResponseBody caps what is read back from the backend (6 MB, the Lambda
// response payload limit).
const maxResponseBody = 6 << 20

// ErrResponseTooLarge is returned when the backend sends more than
// maxResponseBody bytes.
var ErrResponseTooLarge = errors.New("backend response exceeds size limit")

var hopHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Host":              true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

// HTTPForwarder sends each envelope to the same method and path under a base
// URL.
type HTTPForwarder struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPForwarder creates a forwarder for baseURL.
func NewHTTPForwarder(baseURL string, timeout time.Duration) (*HTTPForwarder, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}

	return &HTTPForwarder{
		base: base,
		client: &http.Client{
			Timeout:   timeout,
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
	}, nil
}

// Handle implements dispatch.Handler. Any HTTP response, whatever its
// status, is a handler response; only transport failures are errors.
func (f *HTTPForwarder) Handle(ctx context.Context, env *dispatch.Envelope, cfg *config.HandlerConfig) (*dispatch.Response, error) {
	target := *f.base
	target.Path = strings.TrimSuffix(f.base.Path, "/") + "/" + strings.TrimPrefix(env.Path, "/")

	query := target.Query()
	for k, v := range env.Query {
		query.Set(k, v)
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, env.Method, target.String(), bytes.NewReader(env.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}

	for k, v := range env.Headers {
		if !hopHeaders[http.CanonicalHeaderKey(k)] {
			req.Header.Set(k, v)
		}
	}
	req.Header.Set(HeaderUsersTable, cfg.UsersTable)
	req.Header.Set(HeaderTruckTable, cfg.TruckTable)
	req.Header.Set(HeaderReservationTable, cfg.ReservationTable)
	if env.RequestID != "" {
		req.Header.Set("X-Request-ID", env.RequestID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, ErrResponseTooLarge
	}

	headers := make(map[string]string, len(resp.Header))
	for k, vs := range resp.Header {
		if !hopHeaders[k] {
			headers[k] = strings.Join(vs, ", ")
		}
	}

	return &dispatch.Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}
