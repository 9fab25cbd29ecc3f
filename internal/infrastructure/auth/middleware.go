package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "auth.userId"

// Middleware rejects requests without a valid bearer credential and stores the
// caller's id on the gin context.
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.Verify(TokenFromRequest(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication error"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
