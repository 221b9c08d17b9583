package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// TOOLPROXY_BACKEND_BASE_URL overrides backend.base_url.
const EnvPrefix = "TOOLPROXY_"

// LoadConfig loads configuration from a YAML file at the specified path,
// applies defaults and validates it. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies TOOLPROXY_*
// environment overrides on top of it. An empty path starts from defaults.
//
// The loading sequence is:
//  1. Start from NewDefaultConfig
//  2. Decode the YAML file over it, if a path is given
//  3. Apply environment variable overrides
//  4. Validate
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = NewDefaultConfig()
	} else if cfg, err = decodeFile(path); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overwriting variables that are already set. A
// missing file is ignored unless required is true.
func LoadDotEnv(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies TOOLPROXY_SECTION_FIELD overrides. Values that
// fail to parse are ignored and the file or default value stays in place.
func applyEnvOverrides(cfg *Config) {
	envString("PROXY_LISTEN_ADDRESS", &cfg.Proxy.ListenAddress)
	envDuration("PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	envDuration("PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	envDuration("PROXY_IDLE_TIMEOUT", &cfg.Proxy.IdleTimeout)
	envDuration("PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)
	envInt("PROXY_MAX_HEADER_BYTES", &cfg.Proxy.MaxHeaderBytes)
	envInt64("PROXY_MAX_BODY_BYTES", &cfg.Proxy.MaxBodyBytes)
	envBool("PROXY_CORS_ENABLED", &cfg.Proxy.CORS.Enabled)

	envString("BACKEND_BASE_URL", &cfg.Backend.BaseURL)
	envString("BACKEND_CHAT_PATH", &cfg.Backend.ChatPath)
	envString("BACKEND_MODELS_PATH", &cfg.Backend.ModelsPath)
	envDuration("BACKEND_REQUEST_TIMEOUT", &cfg.Backend.RequestTimeout)
	envDuration("BACKEND_HEALTH_TIMEOUT", &cfg.Backend.HealthTimeout)
	envInt("BACKEND_STREAM_BUFFER", &cfg.Backend.StreamBuffer)
	envInt("BACKEND_STREAM_CHUNK_SIZE", &cfg.Backend.StreamChunkSize)
	envInt("BACKEND_MAX_IDLE_CONNS", &cfg.Backend.MaxIdleConns)

	envString("TOOLS_SCHEMA_PATH", &cfg.Tools.SchemaPath)
	envBool("TOOLS_VALIDATE_PARAMETERS", &cfg.Tools.ValidateParameters)
	envInt64("TOOLS_FILES_MAX_FILE_BYTES", &cfg.Tools.Files.MaxFileBytes)
	envDuration("TOOLS_WEB_TIMEOUT", &cfg.Tools.Web.Timeout)
	envString("TOOLS_WEB_USER_AGENT", &cfg.Tools.Web.UserAgent)
	envInt("TOOLS_WEB_MAX_LINKS", &cfg.Tools.Web.MaxLinks)
	envInt("TOOLS_REPO_MAX_COMMITS", &cfg.Tools.Repo.MaxCommits)
	envInt("TOOLS_REPO_MAX_FILES", &cfg.Tools.Repo.MaxFiles)

	envString("HEALTH_PROBE_SCHEDULE", &cfg.Health.ProbeSchedule)

	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envBool("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envInt64(key string, dst *int64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
