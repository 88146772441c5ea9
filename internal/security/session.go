package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NewSessionID creates a random identifier for session records and
// OAuth state values.
func NewSessionID() string {
	return uuid.New().String()
}

// requestIsHTTPS reports whether the request arrived over TLS, either
// directly or behind a proxy that sets X-Forwarded-Proto.
func requestIsHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// SessionCookie builds the cookie the OAuth web flow uses to carry a
// session or state value. The API itself is bearer-token based, so
// these cookies only exist for the browser redirect legs. Lax works
// for both: the provider callback is a top-level GET navigation.
func SessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   requestIsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie builds a cookie that clears the named one, carrying
// the same flags as SessionCookie so browsers treat it as the same
// cookie.
func ExpiredCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   requestIsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	}
}
