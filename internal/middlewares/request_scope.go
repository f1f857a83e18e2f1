package middlewares

import (
	"net/http"

	"github.com/sahulatai/agentic-backend/internal/connection_manager"
)

// RequestScopeMiddleware gives every request its own connection scope and
// empties it on every exit path, including panics.
func RequestScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, scope := connection_manager.WithRequestScope(r.Context())
		defer scope.Clear()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
