package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/toolproxy/pkg/telemetry/tracing"
)

// Chunk is one read from the backend event stream. Data is owned by the
// receiver. A chunk with a non-nil Err is always the last one.
type Chunk struct {
	Data []byte
	Err  error
}

// Stream is an open event stream from the backend. Bytes are delivered in
// the order they were read, without reframing.
type Stream struct {
	StatusCode  int
	ContentType string

	chunks <-chan Chunk
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Chunks returns the channel of stream reads. It is closed when the
// backend ends the stream, a read fails or the stream is closed.
func (s *Stream) Chunks() <-chan Chunk {
	return s.chunks
}

// Close stops the producer and releases the backend connection. It is
// safe to call more than once and after the stream has ended.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Stream opens a streaming completion. No overall deadline applies; the
// stream lasts until the backend closes it, ctx is cancelled or Close is
// called. A full channel blocks the producer, which in turn stops reading
// from the backend.
func (c *Client) Stream(ctx context.Context, body []byte) (*Stream, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, ModeStream)
	ctx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(ctx, c.chatURL, body)
	if err != nil {
		cancel()
		endSpan(span, nil, err)
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.http.Do(req)
	if err != nil {
		// Read the caller's state before cancel, which always sets ctx.Err.
		outcome := OutcomeUnreachable
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome = OutcomeCanceled
			err = ctxErr
		} else {
			err = &UnreachableError{URL: c.chatURL, Cause: err}
		}
		cancel()
		c.recorder.RecordBackendRequest(ModeStream, outcome, time.Since(start))
		endSpan(span, nil, err)
		return nil, err
	}

	outcome := OutcomeSuccess
	if !isSuccess(resp.StatusCode) {
		outcome = OutcomeStatus
		c.logger.WarnContext(ctx, "backend returned error status for stream", "status", resp.StatusCode)
	}
	c.recorder.RecordBackendRequest(ModeStream, outcome, time.Since(start))

	chunks := make(chan Chunk, c.cfg.StreamBuffer)
	s := &Stream{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		chunks:      chunks,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	go c.produce(ctx, span, resp, chunks, s.done)
	return s, nil
}

// produce owns span from here on and ends it with the stream.
func (c *Client) produce(ctx context.Context, span trace.Span, resp *http.Response, out chan<- Chunk, done chan<- struct{}) {
	defer close(done)
	defer close(out)
	defer resp.Body.Close()

	var total int64
	var streamErr error
	defer func() {
		span.SetAttributes(attribute.Int64(tracing.AttrStreamBytes, total))
		tracing.SetError(span, streamErr)
		span.End()
	}()
	for {
		buf := make([]byte, c.cfg.StreamChunkSize)
		n, err := resp.Body.Read(buf)
		if n > 0 {
			select {
			case out <- Chunk{Data: buf[:n]}:
				total += int64(n)
				c.recorder.RecordStreamBytes(n)
			case <-ctx.Done():
				return
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			c.logger.DebugContext(ctx, "backend stream ended", "bytes", total, "cancelled", ctx.Err() != nil)
			return
		}

		c.logger.WarnContext(ctx, "backend stream read failed", "bytes", total, "error", err)
		streamErr = &StreamError{Bytes: total, Cause: err}
		select {
		case out <- Chunk{Err: streamErr}:
		case <-ctx.Done():
		}
		return
	}
}
