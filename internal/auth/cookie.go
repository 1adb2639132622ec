package auth

import (
	"net/http"
	"time"
)

// DefaultCookieName is the session cookie carrying the signed token.
const DefaultCookieName = "auth_token"

// CookieManager attaches, clears and reads the session cookie.
type CookieManager struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func NewCookieManager(name string, secure bool, maxAge time.Duration) *CookieManager {
	if name == "" {
		name = DefaultCookieName
	}
	return &CookieManager{Name: name, Secure: secure, MaxAge: maxAge}
}

// Attach sets the session cookie on the response.
func (c *CookieManager) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAgeSeconds(c.MaxAge),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// maxAgeSeconds rounds up so a sub-second TTL still yields a persistent
// cookie; net/http drops Max-Age entirely when it is 0.
func maxAgeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Clear expires the session cookie on the client immediately.
func (c *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // serialised as Max-Age=0
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Extract returns the token carried by the request. An empty value counts
// as absent.
func (c *CookieManager) Extract(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
