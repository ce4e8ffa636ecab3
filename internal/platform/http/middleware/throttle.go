package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Allower reports whether one more operation fits in the current window.
type Allower interface {
	Allow() bool
}

// Throttle rejects requests with 429 once the limiter is exhausted.
func Throttle(l Allower) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many uploads, try again later"})
			return
		}
		c.Next()
	}
}
