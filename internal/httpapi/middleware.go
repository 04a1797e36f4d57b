package httpapi

import (
	"time"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger writes one access log line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		switch {
		case status >= 500:
			log.Error("%s %s %d %s %s", c.Request.Method, path, status, latency, c.Errors.String())
		case status >= 400:
			log.Warn("%s %s %d %s", c.Request.Method, path, status, latency)
		default:
			log.Info("%s %s %d %s", c.Request.Method, path, status, latency)
		}
	}
}
