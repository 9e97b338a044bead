package metrics

// ExporterKind names a metric reader backend.
type ExporterKind string

const (
	PrometheusExporter ExporterKind = "prometheus"
	OTLPGRPCExporter   ExporterKind = "otlp-grpc"
)

// Exporter is one reader attached to the meter provider.
type Exporter struct {
	Kind     ExporterKind
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Settings collects the options passed to NewMetricProvider.
type Settings struct {
	ServiceName string
	Exporters   []Exporter
}

type OptionFn func(*Settings)

func WithExporter(e Exporter) OptionFn {
	return func(s *Settings) { s.Exporters = append(s.Exporters, e) }
}

// WithPrometheus serves metrics for scraping; see PrometheusServer.
func WithPrometheus() OptionFn {
	return WithExporter(Exporter{Kind: PrometheusExporter})
}

// WithOTLP pushes metrics to a collector over gRPC.
func WithOTLP(endpoint string, headers map[string]string, insecure bool) OptionFn {
	return WithExporter(Exporter{
		Kind:     OTLPGRPCExporter,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: insecure,
	})
}

func WithServiceName(name string) OptionFn {
	return func(s *Settings) { s.ServiceName = name }
}
