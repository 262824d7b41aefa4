package middleware

import (
	"log/slog"
	"net/http"

	"github.com/snapreviews/snapreviews/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, role, trace_id and span_id. Handlers fetch it with
// logger.FromContext.
//
// Mount it after RequestLogging, Tracing and the role resolver so all of
// those fields are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if role := RoleFromContext(ctx); role != "" {
				ctx = logger.WithRole(ctx, role)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
