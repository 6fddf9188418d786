package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Entity identifiers live in the
// path, so the raw query string is not logged.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}

		reqLogger := logger.WithContext(c.Request.Context())
		switch {
		case len(c.Errors) > 0:
			reqLogger.Error("request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= 500:
			reqLogger.Error("request failed", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	}
}
