package protocol

import (
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sealkit/enclave-signer/internal/audit"
)

// Handler processes one parsed command into a response.
type Handler func(Command) Response

// Middleware wraps a Handler with cross-cutting behavior.
type Middleware func(Handler) Handler

// Chain applies middleware around h, first element outermost.
func Chain(h Handler, mw ...Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Recovery catches panics in the handler and turns them into an ERROR
// response so one bad line cannot kill the loop.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return func(cmd Command) (resp Response) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic recovered",
						"command", cmd.Kind.String(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					resp = Error("Internal error")
				}
			}()
			return next(cmd)
		}
	}
}

// Logging logs each command with its outcome and duration. Payloads are
// never logged.
func Logging() Middleware {
	return func(next Handler) Handler {
		return func(cmd Command) Response {
			start := time.Now()
			resp := next(cmd)

			slog.Debug("command",
				"kind", cmd.Kind.String(),
				"status", resp.Status(),
				"duration", time.Since(start),
			)
			return resp
		}
	}
}

// Audit emits an audit entry per command. On errors the response reason
// is recorded as the detail.
func Audit(logger *audit.Logger) Middleware {
	return func(next Handler) Handler {
		return func(cmd Command) Response {
			start := time.Now()
			resp := next(cmd)

			detail := ""
			if resp.Status() == StatusError {
				detail = resp.Line()
			}
			logger.Log(cmd.Kind.String(), resp.Status(), time.Since(start), detail)
			return resp
		}
	}
}
