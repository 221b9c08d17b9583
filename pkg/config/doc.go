// Package config provides configuration management for toolproxy.
//
// Configuration comes from a YAML file, an optional .env file and
// TOOLPROXY_* environment variables, in that order of increasing precedence.
//
// # Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("configs/config.yaml")
//
// Precedence, later wins:
//
//  1. Defaults (defaults.go)
//  2. The YAML file
//  3. Environment variables such as TOOLPROXY_BACKEND_BASE_URL
//
// LoadDotEnv populates the environment from a .env file before loading,
// never overwriting variables already present.
//
// # Validation
//
// Validation runs after every load and reports all problems at once:
//
//	configuration validation failed with 2 errors:
//	  - backend.base_url: URL scheme must be http or https
//	  - health.probe_schedule: invalid cron expression: ...
//
// # Example
//
//	proxy:
//	  listen_address: "127.0.0.1:4892"
//
//	backend:
//	  base_url: "http://localhost:4891"
//	  request_timeout: 30s
//
//	tools:
//	  schema_path: "configs/tools.json"
//
//	health:
//	  probe_schedule: "@every 1m"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
