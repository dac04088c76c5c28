package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireOwner rejects requests without "Authorization: Bearer <secret>".
// An empty secret rejects everything.
func RequireOwner(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validBearer(c.GetHeader("Authorization"), secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func validBearer(header, secret string) bool {
	if secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
