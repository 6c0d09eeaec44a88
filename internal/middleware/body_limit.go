package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes. Requests announcing a larger
// Content-Length are refused up front; chunked bodies fail while being read.
// A non-positive limit disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// BodyLimitForImages sizes the body limit for JSON payloads that carry one
// base64 image of at most maxImageBytes.
func BodyLimitForImages(maxImageBytes int64) int64 {
	if maxImageBytes <= 0 {
		return 0
	}
	const headroom = 64 << 10
	return (maxImageBytes+2)/3*4 + headroom
}
