package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoCache stops browsers and proxies from caching any response, so a
// reload always reaches the live relay.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		c.Next()
	}
}
