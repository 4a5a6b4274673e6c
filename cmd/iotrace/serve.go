package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	gofrConfig "gofr.dev/pkg/gofr/config"
	"gofr.dev/pkg/gofr/logging"

	workshop "github.com/REZ0AN/otel-tempo-workshop"
	"github.com/REZ0AN/otel-tempo-workshop/internal/config"
	"github.com/REZ0AN/otel-tempo-workshop/internal/fileops"
	"github.com/REZ0AN/otel-tempo-workshop/internal/metrics"
	"github.com/REZ0AN/otel-tempo-workshop/internal/server"
)

var configDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the io task HTTP service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, configDir)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configDir, "config-dir", "configs", "directory holding the .env file")

	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, dir string) error {
	cfg, err := config.Load(gofrConfig.NewEnvFile(dir, logging.NewLogger(logging.INFO)))
	if err != nil {
		logging.NewLogger(logging.ERROR).Errorf("invalid configuration: %v", err)
		return err
	}

	logger := logging.NewLogger(logging.GetLevelFromString(cfg.LogLevel))

	tp, err := workshop.NewTracerProvider(ctx, workshop.ProviderConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Exporter:       cfg.TraceExporter,
		Endpoint:       cfg.TracerEndpoint,
	}, logger)
	if err != nil {
		logger.Errorf("failed to set up tracing: %v", err)
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracePeriod)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("failed to flush traces: %v", err)
		}
	}()

	tracer := tp.Tracer(cfg.ServiceName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	srv := server.New(cfg, tracer, fileops.NewStore(), metrics.New(), logger)

	if err := srv.Run(ctx); err != nil {
		logger.Errorf("server stopped: %v", err)
		return err
	}

	return nil
}
