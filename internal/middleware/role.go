package middleware

import (
	"log/slog"
	"net/http"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/model"
)

// RequireAdmin returns a middleware that restricts the endpoint to
// users with the admin role. It must run after the Auth middleware.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeAuthError(w)
				return
			}

			if authCtx.Role != model.RoleAdmin {
				logger.Warn("admin access denied",
					slog.String("user_id", authCtx.UserID),
					slog.String("role", string(authCtx.Role)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"operation not permitted","code":"FORBIDDEN"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
