// Package backend relays chat completion requests to the local inference
// server.
//
// Client.Complete performs a bounded request/response exchange and returns
// the backend reply unchanged, including non-2xx replies. Client.Stream
// opens an event stream read by a producer goroutine into a bounded
// channel:
//
//	s, err := client.Stream(ctx, body)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	for chunk := range s.Chunks() {
//		if chunk.Err != nil {
//			return chunk.Err
//		}
//		w.Write(chunk.Data)
//	}
//
// Transport failures are reported as *UnreachableError, exceeded deadlines
// as *TimeoutError and invalid JSON on a 2xx reply as *ParseError.
package backend
