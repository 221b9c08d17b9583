package backend

import (
	"fmt"
	"time"
)

// UnreachableError reports a transport failure talking to the backend:
// connection refused, DNS failure, reset connection.
type UnreachableError struct {
	// URL is the backend endpoint that was called.
	URL string

	// Cause is the underlying transport error.
	Cause error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Cause)
}

func (e *UnreachableError) Unwrap() error {
	return e.Cause
}

// TimeoutError reports that a non-streaming request exceeded its deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend request timed out after %s", e.Timeout)
}

// ParseError reports a 2xx response whose body is not valid JSON.
type ParseError struct {
	URL string

	// RawResponse holds at most the first 512 bytes of the body.
	RawResponse string

	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("backend returned invalid JSON: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RequestError reports that the outgoing request could not be built.
type RequestError struct {
	Cause error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to create backend request: %v", e.Cause)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// StreamError is delivered as the final chunk when reading an event stream
// fails part way through.
type StreamError struct {
	// Bytes is the number of bytes relayed before the failure.
	Bytes int64

	Cause error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("backend stream interrupted after %d bytes: %v", e.Bytes, e.Cause)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
