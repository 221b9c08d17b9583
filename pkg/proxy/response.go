package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/toolproxy/pkg/proxy/types"
)

// WriteJSONResponse encodes data as the reply body.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes a {"detail": ...} reply.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.HTTPStatusCode(), errResp)
}

// WriteRawResponse relays a body as received, defaulting the content type
// to JSON.
func WriteRawResponse(w http.ResponseWriter, statusCode int, contentType string, body []byte) error {
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// SetSSEHeaders prepares w for an event stream. Transfer-Encoding is left
// to net/http.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// Flush sends buffered data to the client, unwrapping middleware writers.
func Flush(w http.ResponseWriter) error {
	return http.NewResponseController(w).Flush()
}
