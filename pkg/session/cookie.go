package session

import (
	"net/http"
	"time"
)

type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// DefaultMaxAge applies when the token carries no expiry.
const DefaultMaxAge = 7 * 24 * time.Hour

// SetCookie stores the session token. It reports false and writes nothing
// when the token has less than a second left, since MaxAge 0 would make a
// browser-session cookie and a negative MaxAge would delete it.
func SetCookie(w http.ResponseWriter, cfg CookieConfig, s Session, now time.Time) bool {
	maxAge := DefaultMaxAge
	if !s.ExpiresAt.IsZero() {
		maxAge = s.ExpiresAt.Sub(now)
	}
	seconds := int(maxAge / time.Second)
	if seconds <= 0 {
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    s.Token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   seconds,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func ClearCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
