package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mealwise/backend/internal/identity"
)

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireSession rejects requests without a valid access token and stores
// the verified session under ContextSession. An unreachable identity
// provider yields 502 rather than 401.
func RequireSession(verifier identity.SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		session, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			status, message := identity.Status(err)
			c.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}

		c.Set(ContextSession, session)
		c.Set(ContextAccessToken, token)
		c.Next()
	}
}
