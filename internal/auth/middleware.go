package auth

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/so647/study-time-tracker/internal/domain"
)

// Middleware resolves the session cookie to a user on each request.
type Middleware struct {
	sessions SessionStore
	users    domain.UserRepository
}

// NewMiddleware constructs Middleware.
func NewMiddleware(sessions SessionStore, users domain.UserRepository) *Middleware {
	return &Middleware{sessions: sessions, users: users}
}

// LoadUser looks up the session cookie and, when it resolves, stores the
// user in the request context. Requests without a valid session pass through
// untouched.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.sessions.Lookup(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				ClearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUser redirects unauthenticated requests to the login page, carrying
// the original path in the next parameter.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
