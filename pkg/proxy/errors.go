package proxy

import (
	"context"
	"errors"

	"mercator-hq/toolproxy/pkg/backend"
	"mercator-hq/toolproxy/pkg/proxy/types"
)

// HandleError maps an error to the reply sent to the client. Client
// mistakes are 400; every backend failure is a 500 whose detail names the
// cause. Unknown errors never leak their text.
//
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var unreachable *backend.UnreachableError
	if errors.As(err, &unreachable) {
		return types.NewServerError(unreachable.Error())
	}

	var timeout *backend.TimeoutError
	if errors.As(err, &timeout) {
		return types.NewServerError(timeout.Error())
	}

	var parseErr *backend.ParseError
	if errors.As(err, &parseErr) {
		return types.NewServerError(parseErr.Error())
	}

	var buildErr *backend.RequestError
	if errors.As(err, &buildErr) {
		return types.NewServerError(buildErr.Error())
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.NewServerError("request cancelled")
	}

	return types.NewServerError("internal server error")
}
