package config

import "time"

// Config is the root configuration structure for toolproxy.
type Config struct {
	// Proxy contains HTTP listener configuration for the client-facing side.
	Proxy ProxyConfig `yaml:"proxy"`

	// Backend describes the local OpenAI-compatible inference server that
	// chat completions are forwarded to and that health probes target.
	Backend BackendConfig `yaml:"backend"`

	// Tools configures the tool registry, its schema document and the
	// builtin tool handlers.
	Tools ToolsConfig `yaml:"tools"`

	// Health configures optional scheduled backend probes.
	Health HealthConfig `yaml:"health"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP server.
type ProxyConfig struct {
	// ListenAddress is the "host:port" the proxy listens on.
	// Default: "127.0.0.1:4892"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading an entire request including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Streaming completions stay
	// open until the backend finishes, so the default of zero disables it.
	// Default: 0 (no timeout)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of chat and function request bodies.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. ["*"] allows any origin.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists allowed methods.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists allowed request headers.
	// Default: ["Content-Type", "Authorization", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders lists headers exposed to browsers.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials allows cookies and auth headers on CORS requests.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// BackendConfig describes the inference server.
type BackendConfig struct {
	// BaseURL is the scheme and host of the inference server.
	// Default: "http://localhost:4891"
	BaseURL string `yaml:"base_url"`

	// ChatPath is the chat completions endpoint path.
	// Default: "/v1/chat/completions"
	ChatPath string `yaml:"chat_path"`

	// ModelsPath is the model listing endpoint used for health probes.
	// Default: "/v1/models"
	ModelsPath string `yaml:"models_path"`

	// RequestTimeout bounds a non-streaming completion exchange.
	// Streaming completions are bounded only by the client connection.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// HealthTimeout bounds a single health probe.
	// Default: 5s
	HealthTimeout time.Duration `yaml:"health_timeout"`

	// StreamBuffer is the capacity of the chunk channel between the
	// backend reader and the client writer.
	// Default: 16
	StreamBuffer int `yaml:"stream_buffer"`

	// StreamChunkSize is the read size used when relaying a stream.
	// Default: 4096
	StreamChunkSize int `yaml:"stream_chunk_size"`

	// MaxIdleConns caps idle pooled connections to the backend.
	// Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// ToolsConfig configures the tool registry and builtin handlers.
type ToolsConfig struct {
	// SchemaPath is the tool schema document loaded at startup. JSON and
	// YAML are both accepted. The process refuses to start if it is missing
	// or malformed.
	// Default: "configs/tools.json"
	SchemaPath string `yaml:"schema_path"`

	// ValidateParameters checks invocation parameters against the declared
	// schema before a handler runs.
	// Default: true
	ValidateParameters bool `yaml:"validate_parameters"`

	// Files configures read_file, analyze_file and read_pdf.
	Files FilesToolConfig `yaml:"files"`

	// Web configures scrape_webpage and extract_text.
	Web WebToolConfig `yaml:"web"`

	// Repo configures analyze_repo.
	Repo RepoToolConfig `yaml:"repo"`
}

// FilesToolConfig configures the file reading tools.
type FilesToolConfig struct {
	// MaxFileBytes refuses files larger than this.
	// Default: 10485760 (10MB)
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// WebToolConfig configures the web scraping tools.
type WebToolConfig struct {
	// Timeout bounds a single page fetch.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent with every fetch.
	UserAgent string `yaml:"user_agent"`

	// MaxLinks caps the links returned by scrape_webpage.
	// Default: 50
	MaxLinks int `yaml:"max_links"`

	// MaxBodyBytes caps how much of a page is read.
	// Default: 5242880 (5MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// RepoToolConfig configures repository analysis.
type RepoToolConfig struct {
	// MaxCommits is the number of most recent commits reported.
	// Default: 10
	MaxCommits int `yaml:"max_commits"`

	// MaxFileBytes skips file contents larger than this; the file is still
	// listed.
	// Default: 1048576 (1MB)
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// MaxFiles caps the number of files reported.
	// Default: 500
	MaxFiles int `yaml:"max_files"`
}

// HealthConfig configures scheduled backend probes.
type HealthConfig struct {
	// ProbeSchedule is a cron expression ("@every 1m", "*/5 * * * *").
	// Empty disables scheduled probing; /health always probes on demand.
	ProbeSchedule string `yaml:"probe_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "toolproxy"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of new traces sampled when Sampler is
	// "ratio". Zero means the default; use Sampler "never" to sample
	// nothing.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP/gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// ExportTimeout bounds each export batch.
	// Default: 10s
	ExportTimeout time.Duration `yaml:"export_timeout"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "toolproxy"
	ServiceName string `yaml:"service_name"`
}
