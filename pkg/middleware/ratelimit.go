package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/ratelimit"
	"go.uber.org/zap"
)

// RateLimit applies the limiter to the matched route. Authenticated callers are
// keyed by user ID, everyone else by client IP. Limiter failures let the
// request through.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !limiter.Enabled() {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		identity := c.ClientIP()
		idType := ratelimit.IdentityAnonymous
		if userID, err := GetUserID(c); err == nil {
			identity = userID.String()
			idType = ratelimit.IdentityAuthenticated
		}

		rule := limiter.RuleFor(endpoint, idType)
		result, err := limiter.Allow(c.Request.Context(), endpoint, identity, rule, idType)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("rate limiter unavailable",
				zap.String("endpoint", endpoint), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			label := "anonymous"
			if idType == ratelimit.IdentityAuthenticated {
				label = "authenticated"
			}
			rateLimitRejections.WithLabelValues(endpoint, label).Inc()

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			common.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
