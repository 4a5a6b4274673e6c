package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"gofr.dev/pkg/gofr/logging"

	workshop "github.com/REZ0AN/otel-tempo-workshop"
	"github.com/REZ0AN/otel-tempo-workshop/internal/config"
	"github.com/REZ0AN/otel-tempo-workshop/internal/loadtest"
)

const shutdownTimeout = 10 * time.Second

var (
	loadRunner = loadtest.NewRunner(logging.NewLogger(logging.INFO))

	loadExporter string
	loadEndpoint string
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Drive the io task endpoint with concurrent virtual users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runLoad(ctx, cmd)
	},
}

func init() {
	flags := loadtestCmd.Flags()
	flags.StringVar(&loadRunner.URL, "url", loadtest.DefaultURL, "endpoint to request")
	flags.IntVar(&loadRunner.VUs, "vus", loadtest.DefaultVUs, "number of concurrent virtual users")
	flags.DurationVar(&loadRunner.Duration, "duration", loadtest.DefaultDuration, "how long to keep sending requests")
	flags.DurationVar(&loadRunner.Pause, "pause", loadtest.DefaultPause, "pause between requests of one virtual user")
	flags.StringVar(&loadExporter, "exporter", config.ExporterNone,
		"trace exporter for client spans; with none, requests carry no trace context")
	flags.StringVar(&loadEndpoint, "endpoint", "", "collector endpoint for the client span exporter")

	rootCmd.AddCommand(loadtestCmd)
}

func runLoad(ctx context.Context, cmd *cobra.Command) error {
	if loadExporter != config.ExporterNone {
		tp, err := workshop.NewTracerProvider(ctx, workshop.ProviderConfig{
			ServiceName: "iotrace-loadtest",
			Exporter:    loadExporter,
			Endpoint:    loadEndpoint,
		}, loadRunner.Logger)
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := tp.Shutdown(shutdownCtx); err != nil {
				loadRunner.Logger.Errorf("failed to flush traces: %v", err)
			}
		}()

		otel.SetTracerProvider(tp)
	}

	res, err := loadRunner.Run(ctx)
	if err != nil {
		return err
	}

	codes := make([]int, 0, len(res.Codes))
	for code := range res.Codes {
		codes = append(codes, code)
	}

	sort.Ints(codes)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "requests: %d\nfailures: %d\nelapsed:  %v\n", res.Requests, res.Failures, res.Elapsed)

	for _, code := range codes {
		fmt.Fprintf(out, "  %d: %d\n", code, res.Codes[code])
	}

	return nil
}
