package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "eventline/internal/delivery/http/helpers"
	"eventline/internal/domain"
)

type contextKey string

const callerKey contextKey = "caller"

// SetCaller returns a context with the calling service name set. Used by the
// internal-auth middleware.
func SetCaller(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, callerKey, service)
}

// CallerFromContext returns the authenticated calling service from the
// context, if present.
func CallerFromContext(ctx context.Context) (string, bool) {
	service, ok := ctx.Value(callerKey).(string)
	return service, ok
}

// RequireInternalAuth returns a wrapper that validates the service-to-service
// Bearer token and sets the calling service name in the request context.
// If the token is missing or invalid, it responds with 401 and does not call
// next. Applied to /internal/* and /admin/* routes.
func RequireInternalAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing token")
				return
			}
			service, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("rejected internal call", "path", r.URL.Path, "err", err)
				h.WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
				return
			}
			r = r.WithContext(SetCaller(r.Context(), service))
			next(w, r)
		}
	}
}
