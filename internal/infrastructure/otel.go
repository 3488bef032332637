package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "gradecli"
	ServiceVersion = "1.0.0"
	MeterName      = "gradecli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableMetrics  bool
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		EnableMetrics:  true,
	}
}

// InitializeOTel initializes the OpenTelemetry meter provider with a
// Prometheus exporter so /metrics can be scraped.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if cfg.EnableMetrics {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(providers.MeterProvider)
		providers.Meter = providers.MeterProvider.Meter(MeterName)
		providers.PrometheusHTTP = promhttp.Handler()
	}

	logger.InfoContext(ctx, "OpenTelemetry initialization complete")

	return providers, nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return nil
}

// PipelineMetrics holds the instruments recorded by the moderation pipeline
type PipelineMetrics struct {
	ModerationRuns   metric.Int64Counter
	ParseFailures    metric.Int64Counter
	PipelineDuration metric.Float64Histogram
	RecordsModerated metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on the given meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runs, err := meter.Int64Counter("moderation_runs_total",
		metric.WithDescription("Total number of moderation pipeline runs"))
	if err != nil {
		return nil, err
	}

	parseFailures, err := meter.Int64Counter("gradebook_parse_failures_total",
		metric.WithDescription("Total number of gradebook uploads that failed to parse"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("moderation_pipeline_duration_seconds",
		metric.WithDescription("Duration of moderation pipeline runs in seconds"))
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter("records_moderated_total",
		metric.WithDescription("Total number of student records moderated"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		ModerationRuns:   runs,
		ParseFailures:    parseFailures,
		PipelineDuration: duration,
		RecordsModerated: records,
	}, nil
}

// RecordRun records one completed pipeline run
func (m *PipelineMetrics) RecordRun(ctx context.Context, duration time.Duration, records int, policy string, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.Bool("success", success),
	)
	m.ModerationRuns.Add(ctx, 1, attrs)
	m.PipelineDuration.Record(ctx, duration.Seconds(), attrs)
	if success {
		m.RecordsModerated.Add(ctx, int64(records), attrs)
	}
}
