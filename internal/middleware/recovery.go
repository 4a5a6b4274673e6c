package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recovery records a panic from a downstream handler on the span carried by
// the request and panics again. Logging the panic and answering 500 is left to
// gofr's Logging middleware further out.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				re := recover()
				if re == nil {
					return
				}

				span := trace.SpanFromContext(r.Context())
				span.RecordError(fmt.Errorf("panic: %v", re))
				span.SetStatus(codes.Error, fmt.Sprint(re))

				panic(re)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
