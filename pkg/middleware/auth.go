package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

// authenticate verifies the bearer token and stores claims + session on the context.
// It returns a status and message when the request must be rejected.
func authenticate(c *gin.Context, ver Verifier, token string) (int, string) {
	idToken, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		return http.StatusUnauthorized, "invalid token"
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return http.StatusUnauthorized, "failed to parse claims"
	}
	s, ok := session.FromClaims(claims)
	if !ok {
		return http.StatusUnauthorized, "token has no subject"
	}
	c.Set("claims", claims)
	session.Set(c, s)
	return 0, ""
}

// AuthMiddleware returns a Gin middleware that requires a valid Bearer token.
// A nil verifier means authentication is not configured and every request is refused.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ver == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication is not configured"})
			return
		}
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		if status, msg := authenticate(c, ver, token); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware attaches a session when a valid token is presented and
// lets anonymous requests through. A token that fails verification is still rejected.
func OptionalAuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok || ver == nil {
			c.Next()
			return
		}
		if status, msg := authenticate(c, ver, token); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}
