package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/toolproxy/pkg/backend"
	"mercator-hq/toolproxy/pkg/proxy"
)

// Forwarder relays completion requests to the inference server.
type Forwarder interface {
	Complete(ctx context.Context, body []byte) (*backend.Response, error)
	Stream(ctx context.Context, body []byte) (*backend.Stream, error)
}

// ChatHandler serves POST /v1/chat/completions. The client body is
// forwarded with only "stream" normalized; the backend reply is relayed
// without reframing.
type ChatHandler struct {
	forwarder    Forwarder
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewChatHandler creates a chat handler. A maxBodyBytes of zero uses
// proxy.DefaultMaxBodyBytes.
func NewChatHandler(f Forwarder, maxBodyBytes int64, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{forwarder: f, maxBodyBytes: maxBodyBytes, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chatReq, err := proxy.ParseChatRequest(r, h.maxBodyBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to parse chat request", "error", err)
		h.writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "processing chat completion request",
		"model", chatReq.Model,
		"messages", chatReq.MessageCount,
		"stream", chatReq.Stream,
	)

	if chatReq.Stream {
		h.stream(w, r, chatReq.Encode())
		return
	}
	h.complete(w, r, chatReq.Encode())
}

func (h *ChatHandler) complete(w http.ResponseWriter, r *http.Request, body []byte) {
	ctx := r.Context()
	start := time.Now()

	resp, err := h.forwarder.Complete(ctx, body)
	if err != nil {
		h.logger.ErrorContext(ctx, "backend request failed",
			"error", err,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		h.writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "chat completion relayed",
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	if err := proxy.WriteRawResponse(w, resp.StatusCode, resp.ContentType, resp.Body); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, body []byte) {
	ctx := r.Context()
	start := time.Now()

	s, err := h.forwarder.Stream(ctx, body)
	if err != nil {
		h.logger.ErrorContext(ctx, "backend stream failed to open", "error", err)
		h.writeError(ctx, w, err)
		return
	}
	defer s.Close()

	if s.StatusCode >= 200 && s.StatusCode < 300 {
		proxy.SetSSEHeaders(w)
	} else if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.WriteHeader(s.StatusCode)
	if err := proxy.Flush(w); err != nil {
		h.logger.WarnContext(ctx, "response writer cannot flush", "error", err)
	}

	var (
		chunks int
		bytes  int
	)
	for chunk := range s.Chunks() {
		if chunk.Err != nil {
			// Headers are gone; the client sees a truncated stream.
			h.logger.ErrorContext(ctx, "backend stream interrupted",
				"error", chunk.Err,
				"chunks_sent", chunks,
			)
			return
		}
		if _, err := w.Write(chunk.Data); err != nil {
			h.logger.WarnContext(ctx, "client write failed", "error", err, "chunks_sent", chunks)
			return
		}
		_ = proxy.Flush(w)
		chunks++
		bytes += len(chunk.Data)
	}

	if ctx.Err() != nil {
		h.logger.WarnContext(ctx, "client disconnected during streaming", "chunks_sent", chunks)
		return
	}
	h.logger.InfoContext(ctx, "streaming chat completion relayed",
		"status", s.StatusCode,
		"chunks_sent", chunks,
		"bytes", bytes,
		"latency_ms", time.Since(start).Milliseconds(),
	)
}

func (h *ChatHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if werr := proxy.WriteErrorResponse(w, proxy.HandleError(err)); werr != nil {
		h.logger.ErrorContext(ctx, "failed to write error response", "error", werr)
	}
}
