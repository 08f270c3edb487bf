package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jeffthecoder/gitview/pkg/auth"
	"github.com/jeffthecoder/gitview/pkg/backend"
	"github.com/jeffthecoder/gitview/pkg/config"
	"github.com/jeffthecoder/gitview/pkg/storage"
)

// requestIDKey is the context key for the request id.
var requestIDKey = &struct{ string }{"request_id"}

// RequestIDFromContext returns the request id from the context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// NewContextHandler returns a new context middleware.
// This middleware adds the config, backend, object store, authenticator, and
// logger to the request context, along with a per-request id.
func NewContextHandler(ctx context.Context) func(http.Handler) http.Handler {
	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)
	objstore := storage.FromContext(ctx)
	authn := auth.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			ctx := r.Context()
			ctx = context.WithValue(ctx, requestIDKey, id)
			ctx = config.WithContext(ctx, cfg)
			ctx = backend.WithContext(ctx, be)
			ctx = storage.WithContext(ctx, objstore)
			ctx = auth.WithContext(ctx, authn)
			ctx = log.WithContext(ctx, logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL,
				"addr", r.RemoteAddr,
			))
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}
