package middleware

import (
	"net/http"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/logutil"
	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/arunakai/care-home-saas/internal/utils"
)

// Authenticate resolves the caller from the session cookie on every request
// and puts it on the request context. Anonymous requests pass through with
// no user set; RequireRoles decides whether that is acceptable.
func Authenticate(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := guard.CurrentUser(r)
			if u == nil {
				next.ServeHTTP(w, r)
				return
			}

			logger := logutil.GetOrDefault(r.Context()).With().
				Int64("user_id", u.ID).
				Str("role", u.Role.String()).
				Logger()

			ctx := utils.WithUser(r.Context(), u)
			ctx = logutil.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles answers 401 when no user is authenticated and 403 when the
// user's role is not among roles. With no roles any authenticated user
// passes.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := utils.UserFrom(r.Context())
			if u == nil {
				utils.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !auth.Authorize(u, roles...) {
				logger := logutil.GetOrDefault(r.Context())
				logger.Warn().Str("path", r.URL.Path).Msg("role not permitted")
				utils.JSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
