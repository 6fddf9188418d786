package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns panics into a 500 envelope and forwards them to Sentry when a
// hub is attached to the request (sentrygin installs one).
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithContext(c.Request.Context()).Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
					hub.CaptureException(fmt.Errorf("panic: %v", rec))
				}

				common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
				c.Abort()
			}
		}()

		c.Next()
	}
}
