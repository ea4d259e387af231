package middleware

import (
	"context"
	"net/http"
	"strconv"

	"restaurant-realtime/internal/redis"
	"restaurant-realtime/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// ConnectLimiter is satisfied by *redis.ConnectLimiter.
type ConnectLimiter interface {
	AllowConnect(ctx context.Context, ip string) (*redis.RateLimitResult, error)
}

// WebSocketRateLimitMiddleware limits websocket upgrades per client IP
func WebSocketRateLimitMiddleware(limiter ConnectLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.AllowConnect(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.ErrorFromContext(c.Request.Context(), "rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.ErrorFromContext(c.Request.Context(), "connection rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
