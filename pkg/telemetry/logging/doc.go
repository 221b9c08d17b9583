// Package logging builds the process-wide structured logger.
//
// New returns a *slog.Logger writing JSON or text at the configured level.
// Its handler copies the request id stored with WithRequestID into every
// record logged with that context, so handlers only need to use the
// *Context logging methods:
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "dispatching tool", "tool", name)
package logging
