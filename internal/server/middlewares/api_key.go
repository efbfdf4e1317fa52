package middlewares

import (
	"crypto/subtle"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header differs from key. An empty
// key disables the check. Paths listed in public are always let through.
func APIKey(key string, public ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || slices.Contains(public, c.Request.URL.Path) {
			c.Next()
			return
		}

		if subtle.ConstantTimeCompare([]byte(c.GetHeader(APIKeyHeader)), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Next()
	}
}
