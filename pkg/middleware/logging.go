package middleware

import (
	"time"

	"fanclub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger replaces gin's default logger. Errors attached with c.Error are
// logged with the request; 5xx responses at error level.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		errs := c.Errors.ByType(gin.ErrorTypeAny).String()

		switch {
		case status >= 500:
			log.Error("%s %s %d %s %s", c.Request.Method, c.Request.URL.Path, status, latency, errs)
		case errs != "":
			log.Info("%s %s %d %s %s", c.Request.Method, c.Request.URL.Path, status, latency, errs)
		default:
			log.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, status, latency)
		}
	}
}
