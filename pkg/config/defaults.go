package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "127.0.0.1:4892"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = time.Duration(0)
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultMaxBodyBytes    = int64(10 << 20)

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600

	// Backend defaults
	DefaultBackendBaseURL        = "http://localhost:4891"
	DefaultBackendChatPath       = "/v1/chat/completions"
	DefaultBackendModelsPath     = "/v1/models"
	DefaultBackendRequestTimeout = 30 * time.Second
	DefaultBackendHealthTimeout  = 5 * time.Second
	DefaultBackendStreamBuffer   = 16
	DefaultBackendStreamChunk    = 4096
	DefaultBackendMaxIdleConns   = 10

	// Tools defaults
	DefaultToolsSchemaPath     = "configs/tools.json"
	DefaultToolsValidateParams = true
	DefaultFilesMaxFileBytes   = int64(10 << 20)
	DefaultWebTimeout          = 10 * time.Second
	DefaultWebUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultWebMaxLinks         = 50
	DefaultWebMaxBodyBytes     = int64(5 << 20)
	DefaultRepoMaxCommits      = 10
	DefaultRepoMaxFileBytes    = int64(1 << 20)
	DefaultRepoMaxFiles        = 500

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "toolproxy"
	DefaultTracingSampler   = "ratio"
	DefaultTracingRatio     = 0.1
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
	DefaultTracingService   = "toolproxy"
)

// NewDefaultConfig returns a configuration with every field set to its
// default. Files are decoded on top of it, so booleans that default to true
// keep that value unless the file sets them explicitly.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Proxy: ProxyConfig{
			CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Tools: ToolsConfig{ValidateParameters: DefaultToolsValidateParams},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. It is
// idempotent. Boolean fields are left alone since false is a legitimate
// setting; NewDefaultConfig seeds those.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(&cfg.Proxy)
	applyBackendDefaults(&cfg.Backend)
	applyToolsDefaults(&cfg.Tools)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyProxyDefaults(p *ProxyConfig) {
	if p.ListenAddress == "" {
		p.ListenAddress = DefaultListenAddress
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = DefaultReadTimeout
	}
	if p.IdleTimeout == 0 {
		p.IdleTimeout = DefaultIdleTimeout
	}
	if p.ShutdownTimeout == 0 {
		p.ShutdownTimeout = DefaultShutdownTimeout
	}
	if p.MaxHeaderBytes == 0 {
		p.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if p.MaxBodyBytes == 0 {
		p.MaxBodyBytes = DefaultMaxBodyBytes
	}

	c := &p.CORS
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"X-Request-ID"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultCORSMaxAge
	}
}

func applyBackendDefaults(b *BackendConfig) {
	if b.BaseURL == "" {
		b.BaseURL = DefaultBackendBaseURL
	}
	if b.ChatPath == "" {
		b.ChatPath = DefaultBackendChatPath
	}
	if b.ModelsPath == "" {
		b.ModelsPath = DefaultBackendModelsPath
	}
	if b.RequestTimeout == 0 {
		b.RequestTimeout = DefaultBackendRequestTimeout
	}
	if b.HealthTimeout == 0 {
		b.HealthTimeout = DefaultBackendHealthTimeout
	}
	if b.StreamBuffer == 0 {
		b.StreamBuffer = DefaultBackendStreamBuffer
	}
	if b.StreamChunkSize == 0 {
		b.StreamChunkSize = DefaultBackendStreamChunk
	}
	if b.MaxIdleConns == 0 {
		b.MaxIdleConns = DefaultBackendMaxIdleConns
	}
}

func applyToolsDefaults(t *ToolsConfig) {
	if t.SchemaPath == "" {
		t.SchemaPath = DefaultToolsSchemaPath
	}
	if t.Files.MaxFileBytes == 0 {
		t.Files.MaxFileBytes = DefaultFilesMaxFileBytes
	}
	if t.Web.Timeout == 0 {
		t.Web.Timeout = DefaultWebTimeout
	}
	if t.Web.UserAgent == "" {
		t.Web.UserAgent = DefaultWebUserAgent
	}
	if t.Web.MaxLinks == 0 {
		t.Web.MaxLinks = DefaultWebMaxLinks
	}
	if t.Web.MaxBodyBytes == 0 {
		t.Web.MaxBodyBytes = DefaultWebMaxBodyBytes
	}
	if t.Repo.MaxCommits == 0 {
		t.Repo.MaxCommits = DefaultRepoMaxCommits
	}
	if t.Repo.MaxFileBytes == 0 {
		t.Repo.MaxFileBytes = DefaultRepoMaxFileBytes
	}
	if t.Repo.MaxFiles == 0 {
		t.Repo.MaxFiles = DefaultRepoMaxFiles
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ExportTimeout == 0 {
		t.Tracing.ExportTimeout = DefaultTracingTimeout
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
}
