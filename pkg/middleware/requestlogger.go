package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rocketshoes/cartstore/pkg/logger"
)

// SessionIDHeader identifies the shopper session a request acts on.
const SessionIDHeader = "X-Session-ID"

// RequestLogger stores a request-scoped logger in the context carrying
// request_id, session_id, trace_id and span_id. Handlers retrieve it with
// logger.FromContext.
//
// Mount it after RequestLogging and Tracing so those IDs are present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sid := r.Header.Get(SessionIDHeader); sid != "" {
				ctx = logger.WithSessionID(ctx, sid)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
