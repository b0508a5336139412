package middleware

import (
	"net/http"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/http/response"
)

// RequireAdmin gates the admin console routes. It assumes AuthMiddleware
// already ran.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
			return
		}
		if claims.Role != domain.RoleAdmin {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
