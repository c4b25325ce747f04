package middleware

import (
	"net/http"
	"strings"

	"cirqle-backend/internal/delivery/http/response"
	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/auth"

	"github.com/gin-gonic/gin"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "cirqle_session"

// SessionToken reads the session token from the Authorization header or, failing
// that, the session cookie.
func SessionToken(c *gin.Context) (token string, fromCookie bool) {
	// 1. Try to get token from Header
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), false
	}
	// 2. Try to get token from Cookie
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// SessionAuth verifies the session token and stores its claims on the context.
// Whether the session still exists is the usecase's call.
func SessionAuth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := SessionToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header or session cookie required", nil)
			c.Abort()
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid session token", nil)
			c.Abort()
			return
		}

		c.Set(string(domain.KeySessionID), claims.Subject)
		c.Set(string(domain.KeyUserEmail), claims.Email)
		c.Next()
	}
}

// SessionID returns the id stored by SessionAuth.
func SessionID(c *gin.Context) string {
	return c.GetString(string(domain.KeySessionID))
}
