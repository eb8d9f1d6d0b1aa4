package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin gates the admin surface. It must run after
// AuthMiddleware so the role is already on the context.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok || role != "admin" {
				logger.Warn("Admin endpoint rejected",
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
