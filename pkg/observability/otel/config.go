package otel

import (
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/JailtonJunior94/otel-enrichment/pkg/observability"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// OTLPProtocol defines the protocol to use for OTLP export.
type OTLPProtocol string

const (
	// ProtocolGRPC uses gRPC protocol for OTLP export (default: port 4317).
	ProtocolGRPC OTLPProtocol = "grpc"
	// ProtocolHTTP uses HTTP/protobuf protocol for OTLP export (default: port 4318).
	ProtocolHTTP OTLPProtocol = "http"
)

// Exporter selects where a signal is sent.
type Exporter string

const (
	// ExporterOTLP exports over OTLP using OTLPProtocol.
	ExporterOTLP Exporter = "otlp"
	// ExporterStdout pretty-prints spans to StdoutWriter. Only supported for traces.
	ExporterStdout Exporter = "stdout"
	// ExporterNone keeps the signal in process.
	ExporterNone Exporter = "none"
)

// Config holds the configuration for the OpenTelemetry provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPProtocol   OTLPProtocol // "grpc" or "http", defaults to "grpc"

	TraceExporter   Exporter
	MetricsExporter Exporter
	LogExporter     Exporter

	// Security configuration
	Insecure  bool        // Allow insecure connections (only for non-production environments)
	TLSConfig *tls.Config // Custom TLS configuration (optional, uses system defaults if nil)

	// Trace configuration
	TraceSampleRate float64 // 0.0 to 1.0, default 1.0 (always sample)

	// Enrichment configuration. The enrichment processor is always registered
	// first, ahead of SpanProcessors and the exporter.
	EnrichmentOptions []enrichment.ProcessorOption
	SpanProcessors    []sdktrace.SpanProcessor
	MetricReaders     []sdkmetric.Reader

	// Log configuration
	LogLevel  observability.LogLevel
	LogFormat observability.LogFormat
	LogOutput io.Writer // console output for logs, defaults to os.Stdout

	// StdoutWriter receives spans when TraceExporter is ExporterStdout, defaults to os.Stdout.
	StdoutWriter io.Writer

	// SetGlobal installs the tracer and meter providers as OpenTelemetry globals.
	SetGlobal bool

	// Resource attributes (optional)
	ResourceAttributes map[string]string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:     serviceName,
		ServiceVersion:  "unknown",
		Environment:     "development",
		OTLPEndpoint:    "localhost:4317",
		OTLPProtocol:    ProtocolGRPC,
		TraceExporter:   ExporterOTLP,
		MetricsExporter: ExporterOTLP,
		LogExporter:     ExporterOTLP,
		TraceSampleRate: 1.0,
		LogLevel:        observability.LogLevelInfo,
		LogFormat:       observability.LogFormatJSON,
		SetGlobal:       true,
	}
}

// normalizeProtocol normalizes the protocol string to a valid OTLPProtocol.
func normalizeProtocol(protocol string) OTLPProtocol {
	switch strings.ToLower(protocol) {
	case "http", "http/protobuf":
		return ProtocolHTTP
	default:
		return ProtocolGRPC
	}
}

// normalizeExporter maps an empty value to ExporterOTLP and validates the rest.
func normalizeExporter(signal string, exporter Exporter, allowStdout bool) (Exporter, error) {
	switch e := Exporter(strings.ToLower(string(exporter))); e {
	case "":
		return ExporterOTLP, nil
	case ExporterOTLP, ExporterNone:
		return e, nil
	case ExporterStdout:
		if allowStdout {
			return e, nil
		}
	}
	return "", fmt.Errorf("unsupported %s exporter %q", signal, exporter)
}

// validateSecurityConfig validates the security configuration.
func validateSecurityConfig(config *Config) error {
	// Prevent insecure connections in production
	if config.Insecure {
		env := strings.ToLower(config.Environment)
		if env == "production" || env == "prod" {
			return fmt.Errorf("insecure connections are not allowed in production environment")
		}
		log.Printf("WARNING: Using insecure OTLP connection to %s (environment: %s). This should only be used in development/testing.",
			config.OTLPEndpoint, config.Environment)
	}

	if config.TLSConfig != nil {
		if config.TLSConfig.InsecureSkipVerify {
			log.Printf("WARNING: TLS verification is disabled. This is insecure and should not be used in production.")
		}

		if config.TLSConfig.MinVersion > 0 && config.TLSConfig.MinVersion < tls.VersionTLS12 {
			return fmt.Errorf("minimum TLS version must be 1.2 or higher for security compliance")
		}
	}

	return nil
}

// validate checks the configuration and fills normalized values in place.
func (c *Config) validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("trace sample rate must be between 0.0 and 1.0, got %v", c.TraceSampleRate)
	}
	if err := validateSecurityConfig(c); err != nil {
		return err
	}

	c.OTLPProtocol = normalizeProtocol(string(c.OTLPProtocol))

	var err error
	if c.TraceExporter, err = normalizeExporter("trace", c.TraceExporter, true); err != nil {
		return err
	}
	if c.MetricsExporter, err = normalizeExporter("metrics", c.MetricsExporter, false); err != nil {
		return err
	}
	if c.LogExporter, err = normalizeExporter("log", c.LogExporter, false); err != nil {
		return err
	}

	return nil
}
