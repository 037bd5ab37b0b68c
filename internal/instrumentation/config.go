package instrumentation

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Label values and exporter names.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// DefaultServiceName is reported as service.name
	DefaultServiceName = "aligo-sms-mcp"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// DefaultMetricInterval is the push interval of the otlp and stdout readers.
	DefaultMetricInterval = 10 * time.Second

	// DefaultTraceSamplingRate applies when OTEL_TRACES_SAMPLER_ARG is unset.
	DefaultTraceSamplingRate = 0.1
)

// Config controls metrics, tracing and audit logging.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname when empty
	ServiceInstanceID string

	// Kubernetes resource attributes, set from the downward API when deployed
	K8sNamespace string
	K8sPodName   string

	// Enabled turns the whole provider on or off (INSTRUMENTATION_ENABLED)
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none
	TracingExporter string

	// OTLPEndpoint is host:port without scheme, e.g. "localhost:4318"
	OTLPEndpoint string

	// OTLPInsecure disables TLS towards the collector. Spans carry send
	// metadata, so only use it against a local collector.
	OTLPInsecure bool

	// TraceSamplingRate is a ratio in [0, 1]
	TraceSamplingRate float64

	// DetailedLabels adds a bucketed receiver count to tool metrics.
	// Raw phone numbers and addresses are never used as labels.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs raw receiver numbers and email addresses instead of masked ones.
	// SECURITY: only enable when audit logs are routed to access-controlled storage.
	IncludePII bool
}

// Environment variables read by DefaultConfig. The first name of each entry
// is preferred, later names are fallbacks.
var configEnv = map[string][]string{
	"service_name":        {"OTEL_SERVICE_NAME"},
	"service_instance_id": {"OTEL_SERVICE_INSTANCE_ID"},
	"k8s_namespace":       {"K8S_NAMESPACE", "POD_NAMESPACE"},
	"k8s_pod_name":        {"K8S_POD_NAME", "HOSTNAME"},
	"enabled":             {"INSTRUMENTATION_ENABLED"},
	"metrics_exporter":    {"METRICS_EXPORTER"},
	"tracing_exporter":    {"TRACING_EXPORTER"},
	"otlp_endpoint":       {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"otlp_insecure":       {"OTEL_EXPORTER_OTLP_INSECURE"},
	"sampling_rate":       {"OTEL_TRACES_SAMPLER_ARG"},
	"detailed_labels":     {"METRICS_DETAILED_LABELS"},
	"audit_enabled":       {"AUDIT_LOGGING_ENABLED"},
	"audit_include_pii":   {"AUDIT_LOGGING_INCLUDE_PII"},
}

// DefaultConfig reads the instrumentation settings from the environment.
// Values that fail to parse fall back to their defaults.
func DefaultConfig() Config {
	v := viper.New()
	for key, env := range configEnv {
		_ = v.BindEnv(append([]string{key}, env...)...)
	}

	return Config{
		ServiceName:       stringOr(v, "service_name", DefaultServiceName),
		ServiceVersion:    "unknown",
		ServiceInstanceID: v.GetString("service_instance_id"),
		K8sNamespace:      v.GetString("k8s_namespace"),
		K8sPodName:        v.GetString("k8s_pod_name"),
		Enabled:           boolOr(v, "enabled", true),
		MetricsExporter:   stringOr(v, "metrics_exporter", ExporterPrometheus),
		TracingExporter:   stringOr(v, "tracing_exporter", ExporterNone),
		OTLPEndpoint:      v.GetString("otlp_endpoint"),
		OTLPInsecure:      boolOr(v, "otlp_insecure", false),
		TraceSamplingRate: floatOr(v, "sampling_rate", DefaultTraceSamplingRate),
		DetailedLabels:    boolOr(v, "detailed_labels", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    boolOr(v, "audit_enabled", true),
			IncludePII: boolOr(v, "audit_include_pii", false),
		},
	}
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	metricsExporters := []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	tracingExporters := []string{ExporterOTLP, ExporterStdout, ExporterNone}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}

	return nil
}

func stringOr(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

func boolOr(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(v.GetString(key))
	if err != nil {
		return def
	}
	return b
}

func floatOr(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	f, err := strconv.ParseFloat(v.GetString(key), 64)
	if err != nil {
		return def
	}
	return f
}
