package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datasweeper/internal/core"
)

// sessionMiddleware attaches the browser's workspace session to the request
// context, issuing a cookie when the request has none. API clients without
// cookies can pass the session in the X-Session-ID header.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Session-ID")
		if id == "" {
			if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
				id = c.Value
			}
		}

		if _, err := uuid.Parse(id); err != nil {
			id = s.service.NewSessionID()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(s.cfg.Session.TTL.Seconds()),
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set("X-Session-ID", id)

		ctx := core.ContextWithSession(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
