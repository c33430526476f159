package auth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// CookieName is the session cookie set on login and cleared on logout. The
// cookie carries only the opaque session token; user resolution always goes
// through the SessionStore.
const CookieName = "session"

// ErrSessionNotFound is returned when a token has no live session row.
var ErrSessionNotFound = errors.New("session not found")

// Session is a server-side login session keyed by an opaque token.
type Session struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionStore issues and resolves login sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int, ttl time.Duration) (*Session, error)
	// Lookup resolves a token to the owning user id. Expired or unknown
	// tokens yield ErrSessionNotFound.
	Lookup(ctx context.Context, token string) (int, error)
	Delete(ctx context.Context, token string) error
}

// SetSessionCookie writes the session cookie for s. Remembered sessions get
// a persistent cookie matching the session TTL; otherwise the cookie lives
// for the browser session only.
func SetSessionCookie(w http.ResponseWriter, s *Session, remember bool) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = s.ExpiresAt
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
