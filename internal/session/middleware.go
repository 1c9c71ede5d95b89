package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName carries the session id between page loads.
	CookieName = "storefront_session"

	contextKey = "sessionID"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	return o
}

// Middleware resolves the session identity for every request: it reads the
// cookie, runs it through the Manager, re-issues the cookie when the identity
// rotated, and stashes the session id in the request context.
func Middleware(m *Manager, opts CookieOptions) gin.HandlerFunc {
	opts = opts.normalize()

	return func(c *gin.Context) {
		candidate, _ := c.Cookie(CookieName)
		id := m.Ensure(c.Request.Context(), candidate)

		if id.SessionID != candidate {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     CookieName,
				Value:    id.SessionID,
				Path:     opts.Path,
				Domain:   opts.Domain,
				Expires:  id.ExpiresAt,
				HttpOnly: opts.HttpOnly,
				Secure:   opts.Secure,
				SameSite: opts.SameSite,
			})
		}

		c.Set(contextKey, id.SessionID)
		c.Next()
	}
}

// FromContext returns the session id the Middleware resolved for this
// request. Empty only if the middleware did not run.
func FromContext(c *gin.Context) string {
	return c.GetString(contextKey)
}
