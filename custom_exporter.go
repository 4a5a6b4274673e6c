package workshop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"gofr.dev/pkg/gofr/logging"

	"github.com/REZ0AN/otel-tempo-workshop/internal/model"
)

const exportTimeout = 10 * time.Second

// CustomExporter posts finished spans as a JSON array to an HTTP endpoint.
type CustomExporter struct {
	endpoint string
	logger   logging.Logger
	client   *http.Client
}

func NewCustomExporter(endpoint string, logger logging.Logger) *CustomExporter {
	return &CustomExporter{
		endpoint: endpoint,
		logger:   logger,
		client:   &http.Client{Timeout: exportTimeout},
	}
}

func (e *CustomExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return e.processSpans(ctx, spans)
}

// Shutdown shuts down the exporter.
func (*CustomExporter) Shutdown(context.Context) error {
	return nil
}

func (e *CustomExporter) processSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	payload, err := json.Marshal(convertSpans(spans))
	if err != nil {
		return fmt.Errorf("failed to marshal spans: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Errorf("failed to export %d spans: %v", len(spans), err)
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		e.logger.Debugf("exported %d spans to %s", len(spans), e.endpoint)
		return nil
	default:
		return fmt.Errorf("unexpected response status code: %d", resp.StatusCode)
	}
}

func convertSpans(spans []sdktrace.ReadOnlySpan) []model.Span {
	convertedSpans := make([]model.Span, 0, len(spans))

	for _, s := range spans {
		convertedSpan := model.Span{
			TraceID:       s.SpanContext().TraceID().String(),
			ID:            s.SpanContext().SpanID().String(),
			Name:          s.Name(),
			Kind:          s.SpanKind().String(),
			Timestamp:     s.StartTime().UnixMilli(),
			Duration:      s.EndTime().Sub(s.StartTime()).Milliseconds(),
			Status:        s.Status().Code.String(),
			StatusMessage: s.Status().Description,
			Tags:          make(map[string]string, len(s.Attributes())+s.Resource().Len()),
			LocalEndpoint: map[string]string{"serviceName": serviceName(s)},
		}

		if s.Parent().IsValid() {
			convertedSpan.ParentID = s.Parent().SpanID().String()
		}

		for _, kv := range s.Attributes() {
			k, v := attributeToStringPair(kv)
			convertedSpan.Tags[k] = v
		}

		for _, kv := range s.Resource().Attributes() {
			k, v := attributeToStringPair(kv)
			convertedSpan.Tags[k] = v
		}

		for _, ev := range s.Events() {
			convertedSpan.Events = append(convertedSpan.Events, model.SpanEvent{
				Name:      ev.Name,
				Timestamp: ev.Time.UnixMilli(),
			})
		}

		convertedSpans = append(convertedSpans, convertedSpan)
	}

	return convertedSpans
}

// serviceName falls back to the span name when the resource does not carry
// service.name.
func serviceName(s sdktrace.ReadOnlySpan) string {
	if v, ok := s.Resource().Set().Value(semconv.ServiceNameKey); ok {
		return v.AsString()
	}

	return s.Name()
}

func attributeToStringPair(kv attribute.KeyValue) (string, string) {
	switch kv.Value.Type() {
	// For slice attributes, serialize as JSON list string.
	case attribute.BOOLSLICE:
		data, _ := json.Marshal(kv.Value.AsBoolSlice())
		return (string)(kv.Key), (string)(data)
	case attribute.INT64SLICE:
		data, _ := json.Marshal(kv.Value.AsInt64Slice())
		return (string)(kv.Key), (string)(data)
	case attribute.FLOAT64SLICE:
		data, _ := json.Marshal(kv.Value.AsFloat64Slice())
		return (string)(kv.Key), (string)(data)
	case attribute.STRINGSLICE:
		data, _ := json.Marshal(kv.Value.AsStringSlice())
		return (string)(kv.Key), (string)(data)
	default:
		return (string)(kv.Key), kv.Value.Emit()
	}
}
