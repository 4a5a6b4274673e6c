package config

import (
	"fmt"
	"strconv"
	"time"

	gofrConfig "gofr.dev/pkg/gofr/config"
)

// Exporter names accepted by TRACE_EXPORTER.
const (
	ExporterOTLP     = "otlp"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterCustom   = "custom"
	ExporterNone     = "none"
)

const (
	defaultServiceName    = "tracer-app"
	defaultServiceVersion = "1.0"
	defaultPort           = "5010"
	defaultTempDir        = "temp"
	defaultLogLevel       = "INFO"
	defaultGracePeriod    = "10s"
)

// Config is the service configuration read from configs/.env and the
// process environment.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Port           string
	TracerEndpoint string
	TraceExporter  string
	TempDir        string
	LogLevel       string
	GracePeriod    time.Duration
}

// Load reads the service configuration from c and validates it.
func Load(c gofrConfig.Config) (*Config, error) {
	grace, err := time.ParseDuration(c.GetOrDefault("SHUTDOWN_GRACE_PERIOD", defaultGracePeriod))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SHUTDOWN_GRACE_PERIOD : %w", err)
	}

	cfg := &Config{
		ServiceName:    c.GetOrDefault("SERVICE_NAME", defaultServiceName),
		ServiceVersion: c.GetOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Port:           c.GetOrDefault("PORT", defaultPort),
		TracerEndpoint: c.Get("TRACER_ENDPOINT"),
		TraceExporter:  c.GetOrDefault("TRACE_EXPORTER", ExporterOTLP),
		TempDir:        c.GetOrDefault("TEMP_DIR", defaultTempDir),
		LogLevel:       c.GetOrDefault("LOG_LEVEL", defaultLogLevel),
		GracePeriod:    grace,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable.
func (cfg *Config) Validate() error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to parse port : %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	switch cfg.TraceExporter {
	case ExporterOTLP, ExporterOTLPGRPC, ExporterNone:
	case ExporterCustom:
		if cfg.TracerEndpoint == "" {
			return fmt.Errorf("TRACER_ENDPOINT is required for the %s exporter", ExporterCustom)
		}
	default:
		return fmt.Errorf("unsupported trace exporter %q", cfg.TraceExporter)
	}

	if cfg.TempDir == "" {
		return fmt.Errorf("TEMP_DIR must not be empty")
	}

	if cfg.GracePeriod <= 0 {
		return fmt.Errorf("SHUTDOWN_GRACE_PERIOD must be positive")
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (cfg *Config) Addr() string {
	return ":" + cfg.Port
}
