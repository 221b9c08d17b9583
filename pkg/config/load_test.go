package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
proxy:
  listen_address: "0.0.0.0:9000"
  read_timeout: "60s"

backend:
  base_url: "http://127.0.0.1:1234"
  request_timeout: "45s"
  stream_buffer: 4

tools:
  schema_path: "/etc/toolproxy/tools.yaml"
  validate_parameters: false

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Proxy.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9000", cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Proxy.ReadTimeout)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:1234" {
		t.Errorf("expected base URL %q, got %q", "http://127.0.0.1:1234", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeout != 45*time.Second {
		t.Errorf("expected request timeout 45s, got %v", cfg.Backend.RequestTimeout)
	}
	if cfg.Backend.StreamBuffer != 4 {
		t.Errorf("expected stream buffer 4, got %d", cfg.Backend.StreamBuffer)
	}
	if cfg.Tools.ValidateParameters {
		t.Error("expected validate_parameters false to be respected")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Untouched fields keep their defaults.
	if cfg.Backend.ChatPath != DefaultBackendChatPath {
		t.Errorf("expected default chat path, got %q", cfg.Backend.ChatPath)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to stay enabled by default")
	}
	if cfg.Proxy.WriteTimeout != 0 {
		t.Errorf("expected no write timeout by default, got %v", cfg.Proxy.WriteTimeout)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "proxy: [unterminated\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "ftp://example.com"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Errors[0].Field != "backend.base_url" {
		t.Errorf("expected backend.base_url error, got %s", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "http://localhost:4891"
`)

	t.Setenv("TOOLPROXY_BACKEND_BASE_URL", "http://10.0.0.5:8000")
	t.Setenv("TOOLPROXY_BACKEND_REQUEST_TIMEOUT", "5s")
	t.Setenv("TOOLPROXY_PROXY_CORS_ENABLED", "false")
	t.Setenv("TOOLPROXY_BACKEND_STREAM_BUFFER", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Backend.BaseURL != "http://10.0.0.5:8000" {
		t.Errorf("expected env base URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Backend.RequestTimeout)
	}
	if cfg.Proxy.CORS.Enabled {
		t.Error("expected CORS disabled by env override")
	}
	if cfg.Backend.StreamBuffer != DefaultBackendStreamBuffer {
		t.Errorf("unparseable override should be ignored, got %d", cfg.Backend.StreamBuffer)
	}
}

func TestLoadConfigWithEnvOverrides_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("TOOLPROXY_PROXY_LISTEN_ADDRESS", "127.0.0.1:5000")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Proxy.ListenAddress != "127.0.0.1:5000" {
		t.Errorf("expected override, got %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Backend.BaseURL != DefaultBackendBaseURL {
		t.Errorf("expected default base URL, got %q", cfg.Backend.BaseURL)
	}
}

func TestLoadConfigWithEnvOverrides_Tracing(t *testing.T) {
	t.Setenv("TOOLPROXY_TELEMETRY_TRACING_ENABLED", "true")
	t.Setenv("TOOLPROXY_TELEMETRY_TRACING_SAMPLER", "always")
	t.Setenv("TOOLPROXY_TELEMETRY_TRACING_SAMPLE_RATIO", "0.5")
	t.Setenv("TOOLPROXY_TELEMETRY_TRACING_ENDPOINT", "collector:4317")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	tr := cfg.Telemetry.Tracing
	if !tr.Enabled || tr.Sampler != "always" || tr.SampleRatio != 0.5 || tr.Endpoint != "collector:4317" {
		t.Errorf("tracing = %+v", tr)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "TOOLPROXY_TELEMETRY_LOGGING_LEVEL=warn\nTOOLPROXY_TEST_PRESET=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOOLPROXY_TEST_PRESET", "from-env")
	// Registered so t.Setenv restores the variable after the test.
	t.Setenv("TOOLPROXY_TELEMETRY_LOGGING_LEVEL", "")
	os.Unsetenv("TOOLPROXY_TELEMETRY_LOGGING_LEVEL")

	if err := LoadDotEnv(envPath, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv("TOOLPROXY_TELEMETRY_LOGGING_LEVEL"); got != "warn" {
		t.Errorf("expected warn from .env, got %q", got)
	}
	if got := os.Getenv("TOOLPROXY_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variables must win, got %q", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")

	if err := LoadDotEnv(missing, false); err != nil {
		t.Errorf("optional missing file should be ignored, got %v", err)
	}
	if err := LoadDotEnv(missing, true); err == nil {
		t.Error("required missing file should fail")
	}
	if err := LoadDotEnv("", true); err != nil {
		t.Errorf("empty path should be a no-op, got %v", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "proxy: {}\n")

	if !FileExists(path) {
		t.Error("expected file to exist")
	}
	if FileExists(dir) {
		t.Error("directory is not a regular file")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("missing file reported as existing")
	}
}
