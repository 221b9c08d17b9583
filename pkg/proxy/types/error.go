package types

import "net/http"

// ErrorResponse is the body of every non-2xx reply produced by the proxy
// itself; backend error replies are relayed untouched.
type ErrorResponse struct {
	// Detail is a human-readable description of the problem.
	Detail string `json:"detail"`

	status int
}

// NewErrorResponse builds an error reply with the given HTTP status.
func NewErrorResponse(status int, detail string) *ErrorResponse {
	return &ErrorResponse{Detail: detail, status: status}
}

// NewBadRequestError is a 400 reply.
func NewBadRequestError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, detail)
}

// NewServerError is a 500 reply.
func NewServerError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, detail)
}

// NewMethodNotAllowedError is a 405 reply.
func NewMethodNotAllowedError(method string) *ErrorResponse {
	return NewErrorResponse(http.StatusMethodNotAllowed, "Method "+method+" not allowed")
}

// NewNotFoundError is a 404 reply.
func NewNotFoundError(detail string) *ErrorResponse {
	return NewErrorResponse(http.StatusNotFound, detail)
}

// HTTPStatusCode returns the reply status, 500 when unset.
func (e *ErrorResponse) HTTPStatusCode() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}
