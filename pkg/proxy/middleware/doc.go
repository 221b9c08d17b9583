// Package middleware provides the HTTP middleware wrapped around the proxy
// mux.
//
// # Middleware Chain
//
// Chain applies middlewares outermost first:
//
//	handler = Chain(mux,
//	    RecoveryMiddleware(logger),
//	    RequestIDMiddleware,
//	    LoggingMiddleware(logger),
//	    CORSMiddleware(cfg.Proxy.CORS),
//	    TracingMiddleware(tracer),
//	    MetricsMiddleware(collector),
//	)
//
// MetricsMiddleware has to sit directly on the mux. It reads
// http.Request.Pattern after routing to label requests by route rather
// than by raw path. TracingMiddleware names its span the same way, and
// sits inside RequestIDMiddleware so the span carries the request id.
//
// # Request ID
//
// RequestIDMiddleware keeps a client-supplied X-Request-ID or generates a
// UUID v4, echoes it in the response header and stores it in the context
// via logging.WithRequestID so every log line of the request carries it:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// # Logging
//
// LoggingMiddleware writes one structured line per request:
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/v1/chat/completions",
//	  "status": 200,
//	  "latency_ms": 1250,
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
//
// The wrapped ResponseWriter implements Flush and Unwrap, so streamed
// completions flush through it unchanged.
//
// # Recovery
//
// RecoveryMiddleware converts a handler panic into
//
//	{"detail": "internal server error"}
//
// with status 500. The stack is logged, never returned.
package middleware
