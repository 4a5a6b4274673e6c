package workshop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"gofr.dev/pkg/gofr/logging"
)

func TestNewTracerProvider(t *testing.T) {
	tests := []struct {
		desc    string
		cfg     ProviderConfig
		wantErr bool
	}{
		{"no exporter", ProviderConfig{ServiceName: "tracer-app", Exporter: "none"}, false},
		{"custom exporter", ProviderConfig{ServiceName: "tracer-app", Exporter: "custom", Endpoint: "http://localhost:9999/api/spans"}, false},
		{"otlp http defaults", ProviderConfig{ServiceName: "tracer-app", Exporter: "otlp"}, false},
		{"otlp http endpoint", ProviderConfig{ServiceName: "tracer-app", Exporter: "otlp", Endpoint: "http://tempo:4318/v1/traces"}, false},
		{"otlp grpc endpoint", ProviderConfig{ServiceName: "tracer-app", Exporter: "otlp-grpc", Endpoint: "http://tempo:4317"}, false},
		{"bad endpoint", ProviderConfig{ServiceName: "tracer-app", Exporter: "otlp", Endpoint: "tempo:4318"}, true},
		{"unknown exporter", ProviderConfig{ServiceName: "tracer-app", Exporter: "zipkin"}, true},
	}

	for i, tc := range tests {
		tp, err := NewTracerProvider(context.Background(), tc.cfg, logging.NewLogger(logging.ERROR))

		if tc.wantErr {
			assert.Errorf(t, err, "TEST[%d], Failed.\n%s", i, tc.desc)
			assert.Nilf(t, tp, "TEST[%d], Failed.\n%s", i, tc.desc)

			continue
		}

		require.NoErrorf(t, err, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.NoErrorf(t, tp.Shutdown(context.Background()), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestNewTracerProvider_InstallsPropagator(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	defer otel.SetTextMapPropagator(prev)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	tp, err := NewTracerProvider(context.Background(),
		ProviderConfig{ServiceName: "tracer-app", ServiceVersion: "1.0", Exporter: "none"},
		logging.NewLogger(logging.ERROR))
	require.NoError(t, err)

	defer tp.Shutdown(context.Background())

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
}

func TestOTLPHTTPOptions(t *testing.T) {
	opts, err := otlpHTTPOptions("")
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = otlpHTTPOptions("http://tempo:4318/v1/traces")
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	opts, err = otlpHTTPOptions("https://collector.example.com")
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = otlpHTTPOptions("ftp://tempo:4318")
	assert.Error(t, err)
}

func TestServiceNameFromResource(t *testing.T) {
	spans := testSpans()

	assert.Equal(t, "tracer-app", serviceName(spans[0]))
	assert.Equal(t, semconv.ServiceNameKey, semconv.ServiceName("x").Key)
}
