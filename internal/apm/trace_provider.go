// Package apm configures OpenTelemetry tracing exporters.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/allocation-ledger/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	EmptyProvider    Provider = "none"
)

type TraceProvider interface {
	Stop() error
}

// Settings selects and configures the span exporter.
type Settings struct {
	Provider    Provider
	ServiceName string
	Endpoint    string
	// Headers in "key=value,key2=value2" form.
	Headers string
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// NewEmptyTraceProvider leaves the global no-op tracer in place.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

// ParseHeaders parses "k=v,k2=v2" into a map.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return headers, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[kv[0]] = kv[1]
	}
	return headers, nil
}

func newExporter(ctx context.Context, s Settings) (sdktrace.SpanExporter, error) {
	switch s.Provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	case ZipkinProvider:
		return zipkin.New(s.Endpoint)

	case OTLPGRPCProvider, OTLPHTTPProvider:
		headers, err := ParseHeaders(s.Headers)
		if err != nil {
			return nil, err
		}
		if s.Provider == OTLPHTTPProvider {
			return otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(s.Endpoint),
				otlptracehttp.WithHeaders(headers),
			)
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(s.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)

	default:
		return nil, fmt.Errorf("unknown trace provider: %q", s.Provider)
	}
}

// NewTraceProvider installs a global tracer provider for s. An empty
// provider keeps tracing disabled.
func NewTraceProvider(ctx context.Context, log logger.LoggerInterface, s Settings) (TraceProvider, error) {
	if s.Provider == EmptyProvider || s.Provider == "" {
		log.Info(ctx, "tracing disabled")
		return NewEmptyTraceProvider(), nil
	}

	exp, err := newExporter(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", s.Provider, err)
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(s.ServiceName),
			attribute.String("otel.provider", string(s.Provider)),
		))
	if err != nil {
		// Schema URL conflicts still yield a usable merged resource.
		log.Warn(ctx, "trace resource merge", "error", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "provider", s.Provider, "endpoint", s.Endpoint)

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
