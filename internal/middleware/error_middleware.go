package middleware

import (
	"context"
	"errors"
	"net/http"

	"restaurant-realtime/internal/transport/httpdto"
	realtime_errors "restaurant-realtime/pkg/errors"
	"restaurant-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler writes the last error attached with c.Error, unless the
// handler already wrote a response.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code := StatusFor(err)
		if l != nil {
			log := l.WithContext(c.Request.Context())
			if status >= http.StatusInternalServerError {
				log.Error("request error", zap.Error(err))
			} else {
				log.Debug("request rejected", zap.Error(err))
			}
		}
		c.JSON(status, httpdto.ErrorFromContext(c.Request.Context(), err.Error(), code))
	}
}

// StatusFor maps an error to an HTTP status and response code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, realtime_errors.ErrUnknownTable):
		return http.StatusNotFound, "UNKNOWN_TABLE"
	case errors.Is(err, realtime_errors.ErrNotSubscribed):
		return http.StatusNotFound, "NOT_SUBSCRIBED"
	case errors.Is(err, realtime_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, realtime_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, realtime_errors.ErrFeedClosed), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
