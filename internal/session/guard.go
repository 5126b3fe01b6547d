package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "admin_session"
	contextKey = "admin_session"
)

// Guard rejects requests without a live session and stores the session in
// the gin context for handlers to read with From. Store failures answer 503.
func Guard(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
			return
		}

		s, err := store.Get(c.Request.Context(), token)
		if errors.Is(err, ErrNoSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
			return
		}
		if err != nil {
			// A store outage is not a logout; the request logger reports c.Errors.
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "session store unavailable"})
			return
		}

		c.Set(contextKey, s)
		c.Next()
	}
}

// TokenFrom reads the session cookie, falling back to a bearer token.
func TokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(CookieName); err == nil && token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// From returns the session Guard attached to the request.
func From(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

// SetCookie writes the session cookie scoped to the admin paths.
func SetCookie(c *gin.Context, s *Session, secure bool) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, s.Token, maxAge, "/admin", "", secure, true)
}

func ClearCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/admin", "", secure, true)
}
