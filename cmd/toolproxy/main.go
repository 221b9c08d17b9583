// toolproxy is a local proxy between a chat client and an OpenAI-compatible
// inference server such as LM Studio.
//
// It forwards chat completions to the backend unchanged, streaming or not,
// exposes a registry of local tools as HTTP functions and reports backend
// health.
//
// Usage:
//
//	# Start the proxy with configs/config.yaml if present
//	toolproxy run
//
//	# Start with a custom configuration file
//	toolproxy run --config /path/to/config.yaml
//
//	# Probe the backend once
//	toolproxy health
//
//	# List the tools declared in the schema document
//	toolproxy tools list
//
//	# Validate the schema document, re-checking on every save
//	toolproxy tools lint --watch
package main

func main() {
	Execute()
}
