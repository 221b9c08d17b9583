package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig starts from a valid default configuration.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: NewDefaultConfig()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Proxy.ListenAddress = addr
	return b
}

func (b *ConfigBuilder) WithBackendURL(u string) *ConfigBuilder {
	b.cfg.Backend.BaseURL = u
	return b
}

func (b *ConfigBuilder) WithRequestTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Backend.RequestTimeout = d
	return b
}

func (b *ConfigBuilder) WithProbeSchedule(spec string) *ConfigBuilder {
	b.cfg.Health.ProbeSchedule = spec
	return b
}

func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// MinimalConfig returns a valid configuration with defaults only.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
