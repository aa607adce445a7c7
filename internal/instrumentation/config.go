package instrumentation

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: meetwise)
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"meetwise"`

	// ServiceVersion is the version of the service
	ServiceVersion string `env:"-"`

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	ServiceInstanceID string `env:"OTEL_SERVICE_INSTANCE_ID"`

	// Enabled determines if instrumentation is active (default: true)
	Enabled bool `env:"INSTRUMENTATION_ENABLED" envDefault:"true"`

	// MetricsExporter is one of "prometheus", "otlp", "stdout"
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`

	// TracingExporter is one of "otlp", "stdout", "none"
	TracingExporter string `env:"TRACING_EXPORTER" envDefault:"none"`

	// OTLPEndpoint is the OTLP collector endpoint without protocol prefix, e.g. "localhost:4318"
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure disables TLS for OTLP export. Development only.
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0)
	TraceSamplingRate float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"0.1"`

	// DetailedLabels adds the owner's email domain to tool metrics.
	// Keep it disabled in production to bound label cardinality.
	DetailedLabels bool `env:"METRICS_DETAILED_LABELS" envDefault:"false"`

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool `env:"AUDIT_LOGGING_ENABLED" envDefault:"true"`

	// IncludePII logs full owner email addresses instead of their domains.
	IncludePII bool `env:"AUDIT_LOGGING_INCLUDE_PII" envDefault:"false"`
}

// DefaultConfig returns a Config populated from environment variables.
// Unparseable values fall back to the defaults.
func DefaultConfig() Config {
	var config Config
	if err := env.Parse(&config); err != nil {
		config = Config{}
		_ = env.ParseWithOptions(&config, env.Options{Environment: map[string]string{}})
	}
	config.ServiceVersion = "unknown"
	return config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	validMetricsExporters := map[string]bool{ExporterPrometheus: true, ExporterOTLP: true, ExporterStdout: true}
	if c.MetricsExporter != "" && !validMetricsExporters[c.MetricsExporter] {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	validTracingExporters := map[string]bool{ExporterOTLP: true, ExporterStdout: true, ExporterNone: true}
	if c.TracingExporter != "" && !validTracingExporters[c.TracingExporter] {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter")
	}

	return nil
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Onboarding results
	OnboardingRequired  = "required"
	OnboardingCompleted = "completed"
	OnboardingFailed    = "failed"

	// Cache lookup results
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
