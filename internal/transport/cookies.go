package transport

import (
	"net/http"
	"time"
)

const (
	AccessCookieName  = "pulseo_access"
	RefreshCookieName = "pulseo_refresh"

	AccessCookiePath  = "/"
	RefreshCookiePath = "/api/auth"

	DefaultAccessCookieTTL  = time.Hour
	DefaultRefreshCookieTTL = 30 * 24 * time.Hour
)

// Cookies builds the session cookies. Secure is set in production only so
// local development over plain http keeps working.
// Max-Age is the configured lifetime, not the time left until exp.
type Cookies struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (k Cookies) CreateCookie(name, value, path string, exp time.Time, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (k Cookies) DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (k Cookies) Access(token string, exp time.Time) *http.Cookie {
	ttl := k.AccessTTL
	if ttl == 0 {
		ttl = DefaultAccessCookieTTL
	}
	return k.CreateCookie(AccessCookieName, token, AccessCookiePath, exp, ttl)
}

func (k Cookies) Refresh(token string, exp time.Time) *http.Cookie {
	ttl := k.RefreshTTL
	if ttl == 0 {
		ttl = DefaultRefreshCookieTTL
	}
	return k.CreateCookie(RefreshCookieName, token, RefreshCookiePath, exp, ttl)
}

func (k Cookies) Clear() []*http.Cookie {
	return []*http.Cookie{
		k.DeleteCookie(AccessCookieName, AccessCookiePath),
		k.DeleteCookie(RefreshCookieName, RefreshCookiePath),
	}
}
