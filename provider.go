// Package workshop sets up trace export for the io task service: the tracer
// provider, the exporter selected by configuration, and a custom JSON span
// exporter for collectors that speak neither OTLP transport.
package workshop

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"gofr.dev/pkg/gofr/logging"

	"github.com/REZ0AN/otel-tempo-workshop/internal/config"
)

// ProviderConfig selects the service identity and where spans are exported.
type ProviderConfig struct {
	ServiceName    string
	ServiceVersion string
	Exporter       string
	Endpoint       string
}

// NewTracerProvider builds a tracer provider exporting through the configured
// exporter and installs the W3C trace context propagator. The caller owns the
// provider and must call Shutdown on it exactly once.
func NewTracerProvider(ctx context.Context, cfg ProviderConfig, logger logging.Logger) (*sdktrace.TracerProvider, error) {
	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Infof("exporting traces using %s exporter to %q", cfg.Exporter, cfg.Endpoint)

	return sdktrace.NewTracerProvider(opts...), nil
}

func newExporter(ctx context.Context, cfg ProviderConfig, logger logging.Logger) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case config.ExporterNone:
		return nil, nil
	case config.ExporterCustom:
		return NewCustomExporter(cfg.Endpoint, logger), nil
	case config.ExporterOTLP:
		opts, err := otlpHTTPOptions(cfg.Endpoint)
		if err != nil {
			return nil, err
		}

		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp http exporter: %w", err)
		}

		return exporter, nil
	case config.ExporterOTLPGRPC:
		opts, err := otlpGRPCOptions(cfg.Endpoint)
		if err != nil {
			return nil, err
		}

		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp grpc exporter: %w", err)
		}

		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
}

// otlpHTTPOptions turns a collector URL such as http://tempo:4318/v1/traces
// into exporter options. An empty endpoint keeps the exporter defaults.
func otlpHTTPOptions(endpoint string) ([]otlptracehttp.Option, error) {
	if endpoint == "" {
		return nil, nil
	}

	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}

	if u.Path != "" && u.Path != "/" {
		opts = append(opts, otlptracehttp.WithURLPath(u.Path))
	}

	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return opts, nil
}

func otlpGRPCOptions(endpoint string) ([]otlptracegrpc.Option, error) {
	if endpoint == "" {
		return nil, nil
	}

	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(u.Host)}

	if u.Scheme == "http" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	return opts, nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracer endpoint %q: %w", endpoint, err)
	}

	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("tracer endpoint %q must be an http(s) URL", endpoint)
	}

	return u, nil
}
