package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/auth"
)

// PasswordLogin exchanges the operator password for a token.
type PasswordLogin interface {
	Login(password string) (string, time.Time, error)
}

// IssueToken handles POST /auth/token.
func IssueToken(login PasswordLogin) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
			return
		}

		token, exp, err := login.Login(req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrBadPassword) {
				log.Printf("[AUTH] Failed operator login from %s", c.ClientIP())
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			log.Printf("[AUTH] Token issue failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"token_type": "Bearer",
			"expires_at": exp.Unix(),
		})
	}
}
