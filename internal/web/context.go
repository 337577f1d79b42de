package web

import (
	"net/http"

	"github.com/JonMunkholm/console/internal/config"
	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/logging"
	"github.com/google/uuid"
)

// sessionMiddleware gives every browser a session id cookie and stores the
// id in the request context, along with the client address. Grid instances
// are keyed by the session id.
func sessionMiddleware(cfg config.SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := core.ContextWithSession(r.Context(), id)
			ctx = core.ContextWithClientIP(ctx, clientIP(r))
			ctx = logging.ContextWith(ctx, "session", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
