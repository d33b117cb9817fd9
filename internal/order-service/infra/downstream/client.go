// Package downstream implements the gateways to the brewery services over
// REST. Every call goes through Client, which bounds it with a timeout and
// forwards the request metadata of the inbound call. Client spans and W3C
// trace propagation come from the otelhttp transport.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors"
)

const maxBodyBytes = 1 << 20

// Recorder receives one observation per downstream call.
type Recorder interface {
	ObserveDownstream(service, method string, code int, d time.Duration)
}

type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	recorder   Recorder

	tracerProvider trace.TracerProvider
	propagators    propagation.TextMapPropagator
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client. The caller is then
// responsible for its tracing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTracerProvider and WithPropagators override the global otel providers
// used by the default transport.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracerProvider = tp }
}

func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(c *Client) { c.propagators = p }
}

// NewClient builds a Client whose calls are each bounded by timeout. The
// http.Client itself has no timeout; the per-call context governs it.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{timeout: timeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: c.transport()}
	}
	return c
}

func (c *Client) transport() http.RoundTripper {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	opts := []otelhttp.Option{otelhttp.WithSpanNameFormatter(clientSpanName)}
	if c.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(c.tracerProvider))
	}
	if c.propagators != nil {
		opts = append(opts, otelhttp.WithPropagators(c.propagators))
	}
	return otelhttp.NewTransport(base, opts...)
}

type serviceKey struct{}

// clientSpanName names the span after the service being called, "call-<service>".
func clientSpanName(_ string, r *http.Request) string {
	if service, ok := r.Context().Value(serviceKey{}).(string); ok {
		return "call-" + service
	}
	return "HTTP " + r.Method
}

// Do sends in as a JSON body (when non-nil) and decodes a successful response
// into out (when non-nil). Error statuses become *apperr.DownstreamError and a
// missing response becomes *apperr.TransportError.
func (c *Client) Do(ctx context.Context, service, method, url string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, serviceKey{}, service)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", service, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	interceptors.FromContext(ctx).Inject(req.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(service, method, 0, start)
		return &apperr.TransportError{Service: service, Reason: transportReason(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(service, method, resp.StatusCode, start)
	if err != nil {
		return &apperr.TransportError{Service: service, Reason: transportReason(err), Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &apperr.DownstreamError{Service: service, Status: resp.StatusCode, Body: raw}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

func (c *Client) observe(service, method string, code int, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveDownstream(service, method, code, time.Since(start))
	}
}

func transportReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.ReasonTimeout
	}
	return apperr.ReasonNetwork
}
