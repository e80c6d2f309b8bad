package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wyngai/internal/auth"
)

const (
	ContextKeyClient = "client_name"
	ContextKeyClaims = "claims"
)

// AuthMiddleware returns Gin middleware that validates bearer tokens and
// injects the API client identity.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := issuer.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyClient, claims.ClientName)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClient extracts the API client name from the Gin context.
func GetClient(c *gin.Context) string {
	val, exists := c.Get(ContextKeyClient)
	if !exists {
		return ""
	}
	return val.(string)
}
