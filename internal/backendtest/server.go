// Package backendtest provides a stub inference server for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Response configures the reply for one path.
type Response struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string

	// StreamChunks are written as SSE "data:" events followed by
	// "data: [DONE]".
	StreamChunks []string

	// RawStream is written verbatim, one flush per element.
	RawStream []string

	// Hold keeps a stream open after the last chunk until the client goes
	// away.
	Hold bool
}

// Request is a request received by the server.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is a stub OpenAI-compatible backend.
type Server struct {
	server *httptest.Server

	mu           sync.Mutex
	responses    map[string]Response
	requests     []Request
	disconnected chan struct{}
	discOnce     sync.Once
}

// NewServer starts a stub server. Unconfigured paths answer 404.
func NewServer() *Server {
	s := &Server{
		responses:    make(map[string]Response),
		disconnected: make(chan struct{}),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server base URL.
func (s *Server) URL() string { return s.server.URL }

// Close shuts the server down.
func (s *Server) Close() { s.server.Close() }

// SetResponse configures the reply for path.
func (s *Server) SetResponse(path string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = r
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Disconnected is closed once a held stream observes its client leaving.
func (s *Server) Disconnected() <-chan struct{} {
	return s.disconnected
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	resp, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}

	if len(resp.StreamChunks) > 0 || len(resp.RawStream) > 0 || resp.Hold {
		s.stream(w, r, resp)
		return
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	code := resp.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, v)
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, resp Response) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	code := resp.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	flusher.Flush()

	for _, raw := range resp.RawStream {
		_, _ = io.WriteString(w, raw)
		flusher.Flush()
	}
	for _, chunk := range resp.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}

	if resp.Hold {
		<-r.Context().Done()
		s.discOnce.Do(func() { close(s.disconnected) })
		return
	}
	if len(resp.StreamChunks) > 0 {
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// ChatCompletion builds an OpenAI-style completion body.
func ChatCompletion(content, model string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   model,
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// StreamChunk builds one chat.completion.chunk payload.
func StreamChunk(delta, finishReason string) string {
	chunk := map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion.chunk",
		"model":  "local-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"delta":         map[string]any{"content": delta},
				"finish_reason": finishReason,
			},
		},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

// ErrorResponse builds an OpenAI-style error reply.
func ErrorResponse(status int, message string) Response {
	return Response{
		StatusCode: status,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
				"code":    status,
			},
		},
	}
}

// Models builds a /v1/models reply listing ids.
func Models(ids ...string) Response {
	data := make([]map[string]any, len(ids))
	for i, id := range ids {
		data[i] = map[string]any{"id": id, "object": "model"}
	}
	return Response{StatusCode: http.StatusOK, Body: map[string]any{"object": "list", "data": data}}
}
