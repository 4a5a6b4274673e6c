package loadtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gofr.dev/pkg/gofr/logging"
)

func TestRunner_CountsRequestsAndFailures(t *testing.T) {
	var hits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRunner(logging.NewLogger(logging.FATAL))
	r.URL = srv.URL
	r.VUs = 3
	r.Duration = 200 * time.Millisecond
	r.Pause = 10 * time.Millisecond

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Positive(t, res.Requests)
	assert.LessOrEqual(t, res.Requests, int(hits.Load()))
	assert.Equal(t, res.Codes[http.StatusInternalServerError], res.Failures)
	assert.Equal(t, res.Requests, res.Codes[http.StatusOK]+res.Codes[http.StatusInternalServerError])
	assert.GreaterOrEqual(t, res.Elapsed, 200*time.Millisecond)
}

func TestRunner_PropagatesTraceContext(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()

	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	}()

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var traceparent atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("traceparent"))
	}))
	defer srv.Close()

	r := NewRunner(logging.NewLogger(logging.FATAL))
	r.URL = srv.URL
	r.VUs = 1
	r.Duration = 50 * time.Millisecond
	r.Pause = time.Second

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, traceparent.Load())
}

func TestRunner_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := &Runner{
		URL:      url,
		VUs:      1,
		Duration: 100 * time.Millisecond,
		Pause:    10 * time.Millisecond,
		Logger:   logging.NewLogger(logging.FATAL),
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Positive(t, res.Failures)
	assert.Equal(t, res.Requests, res.Failures)
	assert.Empty(t, res.Codes)
}

func TestRunner_InvalidProfile(t *testing.T) {
	tests := []struct {
		desc     string
		vus      int
		duration time.Duration
	}{
		{"no virtual users", 0, time.Second},
		{"no duration", 1, 0},
	}

	for i, tc := range tests {
		r := NewRunner(logging.NewLogger(logging.FATAL))
		r.VUs = tc.vus
		r.Duration = tc.duration

		_, err := r.Run(context.Background())

		assert.Errorf(t, err, "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestRunner_NilLoggerAndClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	url := srv.URL
	srv.Close()

	r := &Runner{URL: url, VUs: 1, Duration: 50 * time.Millisecond, Pause: 10 * time.Millisecond}

	var (
		res Result
		err error
	)

	require.NotPanics(t, func() { res, err = r.Run(context.Background()) })
	require.NoError(t, err)
	assert.Positive(t, res.Failures)
}
