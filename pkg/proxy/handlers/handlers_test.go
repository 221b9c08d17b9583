package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/toolproxy/internal/backendtest"
	"mercator-hq/toolproxy/pkg/backend"
	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/telemetry/health"
	"mercator-hq/toolproxy/pkg/tools"
)

var quiet = slog.New(slog.DiscardHandler)

func newClient(t *testing.T, stub *backendtest.Server, mutate ...func(*config.BackendConfig)) *backend.Client {
	t.Helper()
	cfg := config.NewDefaultConfig().Backend
	cfg.BaseURL = stub.URL()
	for _, m := range mutate {
		m(&cfg)
	}
	c := backend.NewClient(cfg, backend.WithLogger(quiet))
	t.Cleanup(c.Close)
	return c
}

func decodeMap(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("body %q is not a JSON object: %v", body, err)
	}
	return m
}

func postChat(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatHandler_Complete(t *testing.T) {
	stub := backendtest.NewServer()
	defer stub.Close()
	stub.SetResponse("/v1/chat/completions", backendtest.Response{
		Body: backendtest.ChatCompletion("Hello!", "local-model"),
	})

	h := NewChatHandler(newClient(t, stub), 0, quiet)
	w := postChat(h, `{"model":"local-model","messages":[{"role":"user","content":"hi"}],"temperature":0.7}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	body := decodeMap(t, w.Body.Bytes())
	choice := body["choices"].([]any)[0].(map[string]any)
	if choice["message"].(map[string]any)["content"] != "Hello!" {
		t.Errorf("body = %v", body)
	}

	got, ok := stub.LastRequest()
	if !ok {
		t.Fatal("backend saw no request")
	}
	want := `{"model":"local-model","messages":[{"role":"user","content":"hi"}],"temperature":0.7,"stream":false}`
	if string(got.Body) != want {
		t.Errorf("forwarded body =\n%s\nwant\n%s", got.Body, want)
	}
	if got.Header.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", got.Header.Get("Accept"))
	}
}

func TestChatHandler_BackendErrorStatusRelayed(t *testing.T) {
	stub := backendtest.NewServer()
	defer stub.Close()
	stub.SetResponse("/v1/chat/completions", backendtest.ErrorResponse(http.StatusNotFound, "model not loaded"))

	w := postChat(NewChatHandler(newClient(t, stub), 0, quiet), `{"messages":[{"role":"user","content":"hi"}]}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "model not loaded") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestChatHandler_Errors(t *testing.T) {
	stub := backendtest.NewServer()
	stub.SetResponse("/v1/chat/completions", backendtest.Response{Body: backendtest.ChatCompletion("x", "m"), Delay: time.Second})
	slow := newClient(t, stub, func(c *config.BackendConfig) { c.RequestTimeout = 50 * time.Millisecond })
	t.Cleanup(stub.Close)

	down := backendtest.NewServer()
	downClient := newClient(t, down)
	down.Close()

	tests := []struct {
		name       string
		forwarder  Forwarder
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "malformed json",
			forwarder:  downClient,
			body:       `{"messages":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing messages",
			forwarder:  downClient,
			body:       `{"model":"m"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "messages",
		},
		{
			name:       "backend unreachable",
			forwarder:  downClient,
			body:       `{"messages":[{"role":"user","content":"hi"}]}`,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "backend unreachable",
		},
		{
			name:       "backend unreachable while streaming",
			forwarder:  downClient,
			body:       `{"stream":true,"messages":[{"role":"user","content":"hi"}]}`,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "backend unreachable",
		},
		{
			name:       "backend timeout",
			forwarder:  slow,
			body:       `{"messages":[{"role":"user","content":"hi"}]}`,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(NewChatHandler(tt.forwarder, 0, quiet), tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			body := decodeMap(t, w.Body.Bytes())
			detail, _ := body["detail"].(string)
			if detail == "" || len(body) != 1 {
				t.Fatalf("body = %v, want only detail", body)
			}
			if !strings.Contains(detail, tt.wantDetail) {
				t.Errorf("detail = %q, want it to contain %q", detail, tt.wantDetail)
			}
		})
	}
}

func TestChatHandler_Stream(t *testing.T) {
	stub := backendtest.NewServer()
	defer stub.Close()
	chunks := []string{
		backendtest.StreamChunk("Hel", ""),
		backendtest.StreamChunk("lo", "stop"),
	}
	stub.SetResponse("/v1/chat/completions", backendtest.Response{StreamChunks: chunks})

	for _, size := range []int{1, 5, 4096} {
		h := NewChatHandler(newClient(t, stub, func(c *config.BackendConfig) { c.StreamChunkSize = size }), 0, quiet)
		w := postChat(h, `{"stream":true,"messages":[{"role":"user","content":"hi"}]}`)

		if w.Code != http.StatusOK {
			t.Fatalf("chunk size %d: status = %d", size, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
			t.Errorf("chunk size %d: Content-Type = %q", size, ct)
		}
		want := "data: " + chunks[0] + "\n\ndata: " + chunks[1] + "\n\ndata: [DONE]\n\n"
		if w.Body.String() != want {
			t.Errorf("chunk size %d: body =\n%q\nwant\n%q", size, w.Body.String(), want)
		}
		if !w.Flushed {
			t.Errorf("chunk size %d: response never flushed", size)
		}
	}

	got, _ := stub.LastRequest()
	if string(got.Body) != `{"stream":true,"messages":[{"role":"user","content":"hi"}]}` {
		t.Errorf("forwarded body = %s", got.Body)
	}
	if got.Header.Get("Accept") != "text/event-stream" {
		t.Errorf("Accept = %q", got.Header.Get("Accept"))
	}
}

func TestChatHandler_StreamClientDisconnect(t *testing.T) {
	stub := backendtest.NewServer()
	defer stub.Close()
	stub.SetResponse("/v1/chat/completions", backendtest.Response{
		RawStream: []string{"data: " + backendtest.StreamChunk("a", "") + "\n\n"},
		Hold:      true,
	})

	srv := httptest.NewServer(NewChatHandler(newClient(t, stub), 0, quiet))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL,
		strings.NewReader(`{"stream":true,"messages":[{"role":"user","content":"hi"}]}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 16)
	if _, err := io.ReadAtLeast(resp.Body, buf, 6); err != nil {
		t.Fatalf("no stream data: %v", err)
	}
	cancel()
	resp.Body.Close()

	select {
	case <-stub.Disconnected():
	case <-time.After(5 * time.Second):
		t.Fatal("backend stream not closed after client disconnect")
	}
}

func newDispatcher(t *testing.T) *tools.Dispatcher {
	t.Helper()
	echo := func(_ context.Context, p tools.Params) (any, error) {
		v, err := p.RequiredString("text")
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(v), nil
	}
	reg, err := tools.NewBuilder().
		Register("shout", echo, tools.Schema{
			Name:        "shout",
			Description: "Upper-cases text",
			Parameters: tools.Parameters{
				Type:       "object",
				Properties: map[string]tools.Property{"text": {Type: "string"}},
				Required:   []string{"text"},
			},
		}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return tools.NewDispatcher(reg, tools.WithLogger(quiet), tools.WithValidation(false))
}

func TestFunctionHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/functions/{function_name}", NewFunctionHandler(newDispatcher(t), 0, quiet))

	tests := []struct {
		name      string
		function  string
		body      string
		wantKey   string
		wantValue string
	}{
		{name: "success", function: "shout", body: `{"text":"hi"}`, wantKey: "result", wantValue: "HI"},
		{name: "unknown function", function: "nope", body: `{}`, wantKey: "error", wantValue: "Function nope not found"},
		{name: "handler error", function: "shout", body: ``, wantKey: "error", wantValue: `missing required parameter "text"`},
		{name: "non-object body", function: "shout", body: `["hi"]`, wantKey: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/functions/"+tt.function, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			body := decodeMap(t, w.Body.Bytes())
			if len(body) != 1 {
				t.Fatalf("body = %v, want exactly one key", body)
			}
			v, ok := body[tt.wantKey]
			if !ok {
				t.Fatalf("body = %v, want key %q", body, tt.wantKey)
			}
			if tt.wantValue != "" && v != tt.wantValue {
				t.Errorf("%s = %v, want %q", tt.wantKey, v, tt.wantValue)
			}
			if tt.name == "non-object body" && !strings.HasPrefix(v.(string), "invalid parameters") {
				t.Errorf("error = %v", v)
			}
		})
	}
}

func TestListFunctionsHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewListFunctionsHandler(newDispatcher(t).Registry()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/functions", nil))

	var list FunctionList
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Functions) != 1 || list.Functions[0].Name != "shout" {
		t.Errorf("functions = %+v", list.Functions)
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name      string
		probe     health.ProberFunc
		connected bool
	}{
		{name: "reachable", probe: func(context.Context) error { return nil }, connected: true},
		{name: "unreachable", probe: func(context.Context) error { return errors.New("refused") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(health.NewMonitor(tt.probe, health.WithLogger(quiet)))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			body := decodeMap(t, w.Body.Bytes())
			if body["status"] != "healthy" || body["lmstudio_connected"] != tt.connected {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(http.MethodPost).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil))

	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("reply = %d allow=%q", w.Code, w.Header().Get("Allow"))
	}
	if body := decodeMap(t, w.Body.Bytes()); body["detail"] != "Method GET not allowed" {
		t.Errorf("body = %v", body)
	}
}
