package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/store"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestIDKey is the context key of the request ID.
var RequestIDKey = &struct{ string }{"request-id"}

// RequestIDFromContext returns the ID of the request being served.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// NewContextHandler returns a middleware that puts the config, backend,
// database, store, and a request scoped logger in the request context.
// Every request gets an ID, taken from the X-Request-Id header when the
// client sends one, which is echoed in the response.
func NewContextHandler(ctx context.Context) func(http.Handler) http.Handler {
	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := r.Context()
			ctx = context.WithValue(ctx, RequestIDKey, id)
			ctx = config.WithContext(ctx, cfg)
			ctx = backend.WithContext(ctx, be)
			ctx = db.WithContext(ctx, dbx)
			ctx = store.WithContext(ctx, datastore)
			ctx = log.WithContext(ctx, logger.With("request_id", id))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
