package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"playlater/cache"
	"playlater/models"
)

// RateLimit implements per-user rate limiting using Redis. Unauthenticated
// requests are keyed by client IP. Skipped entirely when Redis is down.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.IsRedisAvailable() {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if user, exists := c.Get("user"); exists {
			if u, ok := user.(models.User); ok {
				key = "user:" + u.ID
			}
		}

		allowed, remaining, err := cache.CheckRateLimit(key, maxRequests, window)
		if err != nil {
			// Redis trouble should not take the API down
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests. Retry after " + window.String(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
