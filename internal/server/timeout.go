package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds every request with a context deadline. Handlers
// are expected to check context.Done() for cooperative cancellation; the
// middleware does not forcibly terminate them.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
