package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/REZ0AN/otel-tempo-workshop/internal/middleware"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	// IOTasksTotal counts io task requests by outcome.
	IOTasksTotal *prometheus.CounterVec
	// StepDuration observes the duration of each io task step.
	StepDuration *prometheus.HistogramVec
	// HTTPRequestsTotal counts served requests by route template and status.
	HTTPRequestsTotal *prometheus.CounterVec
}

// New registers the service collectors, plus the Go and process collectors, on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		IOTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iotrace_io_tasks_total",
			Help: "Total io task requests by outcome.",
		}, []string{"outcome"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iotrace_io_task_step_duration_seconds",
			Help:    "Duration of io task steps.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"step", "outcome"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iotrace_http_requests_total",
			Help: "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}
}

// Outcome maps an error to its outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}

	return OutcomeSuccess
}

// ObserveStep records how long a step took and whether it failed.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	m.StepDuration.WithLabelValues(step, Outcome(err)).Observe(d.Seconds())
}

// ObserveTask counts a finished io task request.
func (m *Metrics) ObserveTask(err error) {
	m.IOTasksTotal.WithLabelValues(Outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument wraps router and counts every request passing through it,
// including ones no route matches. Requests are labelled with the matched
// route template, so path parameters do not explode the label space. A
// panicking handler is counted as a 500 before the panic continues.
func (m *Metrics) Instrument(router *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := middleware.NewResponseRecorder(w)

		defer func() {
			if re := recover(); re != nil {
				m.countRequest(router, r, http.StatusInternalServerError)
				panic(re)
			}
		}()

		router.ServeHTTP(rec, r)

		m.countRequest(router, r, rec.Status())
	})
}

func (m *Metrics) countRequest(router *mux.Router, r *http.Request, status int) {
	route := "unmatched"

	var match mux.RouteMatch
	if router.Match(r, &match) && match.MatchErr == nil && match.Route != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil {
			route = tpl
		}
	}

	m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
}
