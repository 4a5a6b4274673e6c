package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const unknownUserAgent = "unknown"

// RootTracer opens one server span per request and attaches it to the request
// context, so handlers further down can parent their spans on it. The span is
// closed once the handler chain has returned and the response is complete;
// responses with a status of 400 or above mark it as failed.
func RootTracer(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = unknownUserAgent
			}

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx, span := tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.RequestURI()),
					attribute.String("http.user_agent", userAgent),
					attribute.String("http.request_id", requestID),
				),
			)

			rec := NewResponseRecorder(w)
			rec.Header().Set(RequestIDHeader, requestID)

			defer func() {
				span.SetAttributes(attribute.Int("http.status_code", rec.Status()))

				if rec.Status() >= http.StatusBadRequest {
					span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", rec.Status()))
				}

				span.End()
			}()

			next.ServeHTTP(rec, r.WithContext(ctx))
		})
	}
}
