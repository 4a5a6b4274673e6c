// Package loadtest drives repeated io task requests against a running server,
// so traces can be watched piling up in the backend.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gofr.dev/pkg/gofr/logging"
)

const (
	DefaultURL      = "http://localhost:5010/api/v1/io_tasks"
	DefaultVUs      = 10
	DefaultDuration = 30 * time.Second
	DefaultPause    = time.Second
)

// Runner runs VUs virtual users, each issuing a GET to URL followed by Pause,
// until Duration has elapsed.
type Runner struct {
	URL      string
	VUs      int
	Duration time.Duration
	Pause    time.Duration
	Client   *http.Client
	Logger   logging.Logger
}

// Result summarizes one run.
type Result struct {
	Requests int
	Failures int
	Codes    map[int]int
	Elapsed  time.Duration
}

// NewRunner returns a Runner with the default load profile whose client
// propagates trace context on every request.
func NewRunner(logger logging.Logger) *Runner {
	return &Runner{
		URL:      DefaultURL,
		VUs:      DefaultVUs,
		Duration: DefaultDuration,
		Pause:    DefaultPause,
		Client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Logger:   logger,
	}
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.VUs < 1 {
		return Result{}, fmt.Errorf("vus must be at least 1, got %d", r.VUs)
	}

	if r.Duration <= 0 {
		return Result{}, fmt.Errorf("duration must be positive, got %v", r.Duration)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	logger := r.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.INFO)
	}

	ctx, cancel := context.WithTimeout(ctx, r.Duration)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res = Result{Codes: make(map[int]int)}
	)

	start := time.Now()

	for vu := 0; vu < r.VUs; vu++ {
		wg.Add(1)

		go func(vu int) {
			defer wg.Done()

			for ctx.Err() == nil {
				code, err := r.hit(ctx, client)
				if err != nil && ctx.Err() != nil {
					return
				}

				mu.Lock()
				res.Requests++

				if err != nil || code >= http.StatusBadRequest {
					res.Failures++
				}

				if err == nil {
					res.Codes[code]++
				}
				mu.Unlock()

				if err != nil {
					logger.Errorf("vu %d: request failed: %v", vu, err)
				}

				select {
				case <-ctx.Done():
				case <-time.After(r.Pause):
				}
			}
		}(vu)
	}

	wg.Wait()

	res.Elapsed = time.Since(start)

	logger.Infof("load test finished: %d requests, %d failures in %v", res.Requests, res.Failures, res.Elapsed)

	return res, nil
}

func (r *Runner) hit(ctx context.Context, client *http.Client) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, http.NoBody)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
