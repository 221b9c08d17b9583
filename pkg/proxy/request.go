package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/toolproxy/pkg/proxy/types"
	"mercator-hq/toolproxy/pkg/tools"
)

const (
	// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
	DefaultMaxBodyBytes = 10 << 20

	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
)

// RequestError reports a malformed client request. It maps to HTTP 400.
type RequestError struct {
	Message string
	Param   string
}

func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts the error to a 400 reply.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewBadRequestError(e.Message)
}

// ReadBody reads at most maxBytes from the request body.
func ReadBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("failed to read request body: %v", err), Param: "body"}
	}
	if int64(len(body)) > maxBytes {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
			Param:   "body",
		}
	}
	return body, nil
}

// ParseChatRequest reads and validates a chat completion request.
func ParseChatRequest(r *http.Request, maxBytes int64) (*types.ChatRequest, error) {
	body, err := ReadBody(r, maxBytes)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, &RequestError{Message: "request body is required", Param: "body"}
	}

	req, err := types.DecodeChatRequest(body)
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			return nil, &RequestError{Message: ve.Message, Param: ve.Field}
		}
		return nil, err
	}
	return req, nil
}

// ParseFunctionParams decodes a function invocation body. An empty body is
// an empty parameter map; anything other than a JSON object is an error.
func ParseFunctionParams(r *http.Request, maxBytes int64) (tools.Params, error) {
	body, err := ReadBody(r, maxBytes)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return tools.Params{}, nil
	}

	var params map[string]any
	if err := json.Unmarshal(body, &params); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("invalid parameters: %v", err), Param: "body"}
	}
	if params == nil {
		return nil, &RequestError{Message: "invalid parameters: body must be a JSON object", Param: "body"}
	}
	return tools.Params(params), nil
}

// RequestID returns the client-supplied request id, if any.
func RequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}
