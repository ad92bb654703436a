// Package telemetry exports actor runtime traces and logs over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amp-labs/eventual/envutil"
	amperrors "github.com/amp-labs/eventual/errors"
	"github.com/amp-labs/eventual/logger"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	kubernetesCollector   = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

var (
	mut            sync.Mutex               //nolint:gochecknoglobals
	tracerProvider *sdktrace.TracerProvider //nolint:gochecknoglobals
	loggerProvider *sdklog.LoggerProvider   //nolint:gochecknoglobals
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	LogsEndpoint   string
	Enabled        bool
	LogsEnabled    bool
	Timeout        time.Duration
}

// LoadConfigFromEnv reads the OTEL_* variables. Inside Kubernetes the
// endpoints default to the cluster's collector service.
func LoadConfigFromEnv(runningEnv string) (*Config, error) {
	defaultEndpoint := ""
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		defaultEndpoint = kubernetesCollector
	}

	errs := &amperrors.Collection{}

	value := func(rdr envutil.Reader[string]) string {
		v, err := rdr.Value()
		errs.Add(err)

		return v
	}

	cfg := &Config{
		Environment: runningEnv,
		Enabled:     envutil.Bool("OTEL_ENABLED", envutil.Default(false)).ValueOrElse(false),
		LogsEnabled: envutil.Bool("OTEL_LOGS_ENABLED", envutil.Default(false)).ValueOrElse(false),
		ServiceName: value(envutil.String("OTEL_SERVICE_NAME",
			envutil.Default(logger.GetSubsystem(context.Background())))),
		ServiceVersion: value(envutil.String("OTEL_SERVICE_VERSION",
			envutil.Default(defaultServiceVersion))),
		Endpoint: value(envutil.String("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
			envutil.Default(defaultEndpoint))),
		LogsEndpoint: value(envutil.String("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT",
			envutil.Default(defaultEndpoint))),
	}

	timeout, err := envutil.Duration("OTEL_EXPORTER_OTLP_TIMEOUT", envutil.Default(defaultTimeout)).Value()
	errs.Add(err)

	cfg.Timeout = timeout

	if errs.HasError() {
		return nil, errs.GetError()
	}

	return cfg, nil
}

func newResource(ctx context.Context, config *Config) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// Initialize sets up OTLP trace export and installs the global tracer provider.
func Initialize(ctx context.Context, config *Config) error {
	log := logger.Get(ctx)

	if !config.Enabled {
		log.Info("OpenTelemetry tracing is disabled")

		return nil
	}

	if config.Endpoint == "" {
		log.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return err
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	mut.Lock()
	tracerProvider = provider
	mut.Unlock()

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
	)

	return nil
}

// InitializeLogs sets up OTLP log export and returns a logger that writes to
// it. It returns nil when log export is disabled, so callers keep their
// existing logger.
func InitializeLogs(ctx context.Context, config *Config) (*slog.Logger, error) {
	log := logger.Get(ctx)

	if !config.LogsEnabled || config.LogsEndpoint == "" {
		log.Info("OpenTelemetry log export is disabled")

		return nil, nil //nolint:nilnil
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(config.LogsEndpoint),
		otlploghttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	mut.Lock()
	loggerProvider = provider
	mut.Unlock()

	log.Info("OpenTelemetry log export initialized", "endpoint", config.LogsEndpoint)

	return otelslog.NewLogger(config.ServiceName, otelslog.WithLoggerProvider(provider)), nil
}

// Shutdown flushes and stops whatever Initialize and InitializeLogs set up.
func Shutdown(ctx context.Context) error {
	mut.Lock()
	tp, lp := tracerProvider, loggerProvider
	tracerProvider, loggerProvider = nil, nil
	mut.Unlock()

	errs := &amperrors.Collection{}

	if tp != nil {
		logger.Get(ctx).Info("Shutting down OpenTelemetry tracer provider")
		errs.Add(tp.Shutdown(ctx))
	}

	if lp != nil {
		errs.Add(lp.Shutdown(ctx))
	}

	return errs.GetError()
}
