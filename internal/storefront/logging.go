package storefront

import (
	"time"

	"github.com/appser/appser-store/pkg/logger"
	"github.com/gin-gonic/gin"
)

// requestLogger writes one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", keyvals...)
		case status >= 400:
			logger.Warn("http_request", keyvals...)
		default:
			logger.Debug("http_request", keyvals...)
		}
	}
}
