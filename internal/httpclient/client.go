// Package httpclient provides an instrumented HTTP client with OTEL tracing and metrics.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/allocation-ledger/internal/ratelimit"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	tracerName           = "github.com/fd1az/allocation-ledger/internal/httpclient"
	metricRequestCounter = "http_client_requests_total"
)

// Client performs JSON requests against a single upstream.
type Client interface {
	// GetJSON issues a GET for path and decodes a successful body into result.
	GetJSON(ctx context.Context, path string, result any, opts ...RequestOption) (*Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	tracer         trace.Tracer
	opts           ClientOptions
}

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	options := ClientOptions{
		providerName:   "default",
		requestTimeout: defaultRequestTimeout,
	}
	for _, o := range opts {
		o(&options)
	}

	transport := options.roundTripper
	if transport == nil {
		transport = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: options.requestTimeout,
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	meterProvider := options.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}

	meter := meterProvider.Meter(tracerName,
		metric.WithInstrumentationAttributes(attribute.String("provider", options.providerName)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		client:         httpClient,
		requestCounter: requestCounter,
		tracer:         otel.Tracer(tracerName),
		opts:           options,
	}, nil
}

// Limiter returns the configured rate limiter, if any.
func (c *InstrumentedClient) Limiter() *ratelimit.Limiter {
	return c.opts.limiter
}

func (c *InstrumentedClient) buildURL(path string, query map[string]string) (string, error) {
	full := path
	if c.opts.baseURL != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(c.opts.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", full, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// GetJSON implements Client.
func (c *InstrumentedClient) GetJSON(ctx context.Context, path string, result any, opts ...RequestOption) (*Response, error) {
	var reqOpts RequestOptions
	for _, o := range opts {
		o(&reqOpts)
	}

	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", http.MethodGet),
			attribute.String("http.path", path),
			attribute.String("provider", c.opts.providerName),
		),
	)
	defer span.End()

	if c.opts.limiter != nil {
		if err := c.opts.limiter.Wait(ctx); err != nil {
			c.fail(ctx, span, reqOpts.labels, err)
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	fullURL, err := c.buildURL(path, reqOpts.query)
	if err != nil {
		c.fail(ctx, span, reqOpts.labels, err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		c.fail(ctx, span, reqOpts.labels, err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.opts.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.fail(ctx, span, reqOpts.labels, err)
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.fail(ctx, span, reqOpts.labels, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: body}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.opts.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(body)),
		))
	}

	if reqOpts.errorHandler != nil {
		if herr := reqOpts.errorHandler(resp.StatusCode, body); herr != nil {
			c.fail(ctx, span, reqOpts.labels, herr)
			return out, herr
		}
	}
	if out.IsError() {
		herr := fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		c.fail(ctx, span, reqOpts.labels, herr)
		return out, herr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			c.fail(ctx, span, reqOpts.labels, err)
			return out, fmt.Errorf("decode response: %w", err)
		}
	}

	c.record(ctx, reqOpts.labels, true)
	return out, nil
}

func (c *InstrumentedClient) fail(ctx context.Context, span trace.Span, labels []Label, err error) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	c.record(ctx, labels, false)
}

func (c *InstrumentedClient) record(ctx context.Context, labels []Label, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", c.opts.providerName),
		attribute.Bool("success", success),
	}
	for _, l := range labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	c.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
