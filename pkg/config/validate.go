package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "backend.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration. All field errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateBackend(&cfg.Backend)...)
	errs = append(errs, validateTools(&cfg.Tools)...)
	errs = append(errs, validateHealth(&cfg.Health)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "proxy.listen_address", Message: "listen address is required"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{Field: "proxy.listen_address", Message: fmt.Sprintf("invalid host:port: %v", err)})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Message: "read timeout must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Message: "write timeout must not be negative"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.idle_timeout", Message: "idle timeout must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.shutdown_timeout", Message: "shutdown timeout must not be negative"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "proxy.max_header_bytes", Message: "max header bytes must be non-negative"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "proxy.max_body_bytes", Message: "max body bytes must be positive"})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "proxy.cors.max_age", Message: "max age must be non-negative"})
	}

	return errs
}

func validateBackend(cfg *BackendConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{Field: "backend.base_url", Message: "base URL is required"})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil {
		errs = append(errs, FieldError{Field: "backend.base_url", Message: fmt.Sprintf("invalid URL: %v", err)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{Field: "backend.base_url", Message: "URL scheme must be http or https"})
	} else if u.Host == "" {
		errs = append(errs, FieldError{Field: "backend.base_url", Message: "URL must include a host"})
	}

	if !strings.HasPrefix(cfg.ChatPath, "/") {
		errs = append(errs, FieldError{Field: "backend.chat_path", Message: "path must start with /"})
	}
	if !strings.HasPrefix(cfg.ModelsPath, "/") {
		errs = append(errs, FieldError{Field: "backend.models_path", Message: "path must start with /"})
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{Field: "backend.request_timeout", Message: "request timeout must be positive"})
	}
	if cfg.HealthTimeout <= 0 {
		errs = append(errs, FieldError{Field: "backend.health_timeout", Message: "health timeout must be positive"})
	}
	if cfg.StreamBuffer < 1 {
		errs = append(errs, FieldError{Field: "backend.stream_buffer", Message: "stream buffer must be at least 1"})
	}
	if cfg.StreamChunkSize < 1 {
		errs = append(errs, FieldError{Field: "backend.stream_chunk_size", Message: "stream chunk size must be at least 1"})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "backend.max_idle_conns", Message: "max idle connections must be non-negative"})
	}

	return errs
}

func validateTools(cfg *ToolsConfig) []FieldError {
	var errs []FieldError

	if cfg.SchemaPath == "" {
		errs = append(errs, FieldError{Field: "tools.schema_path", Message: "schema path is required"})
	}
	if cfg.Files.MaxFileBytes <= 0 {
		errs = append(errs, FieldError{Field: "tools.files.max_file_bytes", Message: "must be positive"})
	}
	if cfg.Web.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "tools.web.timeout", Message: "timeout must be positive"})
	}
	if cfg.Web.MaxLinks < 0 {
		errs = append(errs, FieldError{Field: "tools.web.max_links", Message: "must be non-negative"})
	}
	if cfg.Web.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "tools.web.max_body_bytes", Message: "must be positive"})
	}
	if cfg.Repo.MaxCommits < 1 {
		errs = append(errs, FieldError{Field: "tools.repo.max_commits", Message: "must be at least 1"})
	}
	if cfg.Repo.MaxFiles < 1 {
		errs = append(errs, FieldError{Field: "tools.repo.max_files", Message: "must be at least 1"})
	}
	if cfg.Repo.MaxFileBytes <= 0 {
		errs = append(errs, FieldError{Field: "tools.repo.max_file_bytes", Message: "must be positive"})
	}

	return errs
}

func validateHealth(cfg *HealthConfig) []FieldError {
	if cfg.ProbeSchedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(cfg.ProbeSchedule); err != nil {
		return []FieldError{{Field: "health.probe_schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q, must be one of: debug, info, warn, error", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q, must be json or text", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q, must be one of: always, never, ratio", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
	}

	return errs
}
