// Package server wires the io task handlers into an HTTP server.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
	gofrMiddleware "gofr.dev/pkg/gofr/http/middleware"
	"gofr.dev/pkg/gofr/logging"

	"github.com/REZ0AN/otel-tempo-workshop/internal/config"
	"github.com/REZ0AN/otel-tempo-workshop/internal/fileops"
	"github.com/REZ0AN/otel-tempo-workshop/internal/handler"
	"github.com/REZ0AN/otel-tempo-workshop/internal/metrics"
	"github.com/REZ0AN/otel-tempo-workshop/internal/middleware"
)

const readHeaderTimeout = 5 * time.Second

type Server struct {
	cfg     *config.Config
	logger  logging.Logger
	router  *mux.Router
	handler http.Handler
}

func New(cfg *config.Config, tracer trace.Tracer, store fileops.Store, m *metrics.Metrics,
	logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: mux.NewRouter(),
	}

	ioTasks := handler.NewIOTasks(tracer, store, cfg.TempDir, logger, m)

	s.router.Use(middleware.Recovery())

	s.router.Handle("/api/v1/io_tasks", ioTasks).Methods(http.MethodGet)
	s.router.Handle("/io_tasks", ioTasks).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/health", handler.Health).Methods(http.MethodGet)
	s.router.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	s.router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// Wrapped outside the router so unmatched requests are traced, logged
	// and counted too.
	s.handler = middleware.RootTracer(tracer)(gofrMiddleware.Logging(logger)(m.Instrument(s.router)))

	return s
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled and then shuts the listener down, giving
// in-flight requests up to the configured grace period to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Infof("starting server on port: %s", s.cfg.Port)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("shutting down server, waiting up to %v", s.cfg.GracePeriod)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}
