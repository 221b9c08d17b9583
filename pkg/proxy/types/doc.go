// Package types defines the request and error bodies handled by the proxy.
//
// ChatRequest holds a chat completion request as an ordered list of raw
// top-level fields so it can be forwarded with the client's own encoding.
// Only the stream member is rewritten, always as an explicit boolean:
//
//	req, err := types.DecodeChatRequest(body)
//	if err != nil {
//		// *ValidationError naming the offending field
//	}
//	forward(req.Encode())
//
// ErrorResponse is the {"detail": "..."} body of proxy-generated errors.
package types
