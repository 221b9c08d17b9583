// Package handlers provides the HTTP handlers behind the proxy routes.
//
// # Chat Completions
//
// ChatHandler parses the client body into an ordered set of raw fields,
// validates messages and normalizes "stream" to a JSON boolean. Every other
// field is forwarded byte for byte. Non-streaming replies are relayed with
// the backend's status, content type and body. Streaming replies are
// relayed chunk by chunk with a flush after each write:
//
//	data: {"id":"chatcmpl-123","object":"chat.completion.chunk",...}
//
//	data: [DONE]
//
// Parse failures answer 400 and backend failures 500, both as
// {"detail": "..."}. A failure after the stream has started is logged and
// the stream ends early.
//
// # Functions
//
// FunctionHandler invokes a registered tool by path name. Replies are
// always 200 with exactly one of
//
//	{"result": ...}
//	{"error": "Function nope not found"}
//
// ListFunctionsHandler lists the registered schemas under "functions".
//
// # Health
//
// HealthHandler probes the backend on every call and always answers 200:
//
//	{"status": "healthy", "lmstudio_connected": true}
package handlers
