package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/auth"
)

// ClaimsKey is the gin context key holding verified operator claims.
const ClaimsKey = "operator_claims"

// TokenVerifier checks operator tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireOperator rejects requests without a valid bearer token. When
// required is false every request passes.
func RequireOperator(v TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !required {
			c.Next()
			return
		}

		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := v.Verify(token)
		if err != nil {
			log.Printf("[AUTH] Rejected token on %s %s: %v", c.Request.Method, c.FullPath(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
