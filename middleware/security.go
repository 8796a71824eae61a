package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent clickjacking attacks
		c.Header("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")

		// Enable XSS protection (legacy browsers)
		c.Header("X-XSS-Protection", "1; mode=block")

		// Content Security Policy for a JSON API
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Referrer Policy - controls how much referrer information is sent
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}
