package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/allocation-ledger/internal/ratelimit"
)

// ClientOptions holds configuration for the instrumented HTTP client.
type ClientOptions struct {
	meterProvider  metric.MeterProvider
	providerName   string
	roundTripper   http.RoundTripper
	requestTimeout time.Duration
	headers        map[string]string
	baseURL        string
	limiter        *ratelimit.Limiter
	logResponse    bool
}

// ClientOption is a function that configures ClientOptions.
type ClientOption func(*ClientOptions)

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(o *ClientOptions) {
		o.meterProvider = mp
	}
}

// WithProviderName sets the provider name for metrics and traces.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) {
		o.providerName = name
	}
}

// WithRoundTripper sets a custom HTTP transport.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *ClientOptions) {
		o.roundTripper = rt
	}
}

// WithRequestTimeout sets the request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.requestTimeout = timeout
	}
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		o.headers = headers
	}
}

// WithBaseURL sets the base URL for relative request paths.
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.baseURL = url
	}
}

// WithRateLimiter makes every request wait for a limiter token first.
func WithRateLimiter(l *ratelimit.Limiter) ClientOption {
	return func(o *ClientOptions) {
		o.limiter = l
	}
}

// WithResponseTracing records response bodies as span events.
func WithResponseTracing() ClientOption {
	return func(o *ClientOptions) {
		o.logResponse = true
	}
}

// RequestOptions holds per-request configuration.
type RequestOptions struct {
	query        map[string]string
	labels       []Label
	errorHandler ResponseErrorHandler
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

// ResponseErrorHandler maps a response to an error. Returning nil accepts it.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler sets a custom error handler for responses.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *RequestOptions) {
		o.errorHandler = handler
	}
}

// WithQueryParam adds a query parameter.
func WithQueryParam(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.query == nil {
			o.query = make(map[string]string)
		}
		o.query[key] = value
	}
}

// Label is a key-value pair recorded on request metrics.
type Label struct {
	Key   string
	Value string
}

// WithLabel adds a metric label to the request.
func WithLabel(key, value string) RequestOption {
	return func(o *RequestOptions) {
		o.labels = append(o.labels, Label{Key: key, Value: value})
	}
}
