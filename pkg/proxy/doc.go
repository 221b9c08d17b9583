// Package proxy holds the request and response codec shared by the HTTP
// handlers.
//
// # Architecture
//
//   - handlers: chat completion passthrough, function invocation, function
//     listing, health
//   - middleware: recovery, logging, request id, CORS
//   - types: ordered chat request and {"detail"} error bodies
//
// # Request Flow
//
//  1. Middleware assigns a request id and logs the request
//  2. ParseChatRequest bounds, decodes and validates the body
//  3. The handler forwards req.Encode() to the backend
//  4. The backend reply is relayed unchanged, or streamed chunk by chunk
//
// # Errors
//
// HandleError is the single place that maps errors to replies:
//
//	*RequestError               -> 400 {"detail": "<problem>"}
//	*backend.UnreachableError   -> 500 {"detail": "backend unreachable: ..."}
//	*backend.TimeoutError       -> 500 {"detail": "backend request timed out after 30s"}
//	*backend.ParseError         -> 500 {"detail": "backend returned invalid JSON: ..."}
//	anything else               -> 500 {"detail": "internal server error"}
//
// Tool failures never reach HandleError; they are 200 replies carrying
// {"error": "..."}.
package proxy
