package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/redis"
	realtime_errors "restaurant-realtime/pkg/errors"
	"restaurant-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	tokens := auth.NewTokenService("secret")
	engine := gin.New()
	engine.GET("/admin", AuthMiddleware(tokens), RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.UserID)
	})

	admin, err := tokens.SignAccessToken(auth.AccessClaims{UserID: "boss", Role: auth.RoleAdmin}, time.Minute)
	require.NoError(t, err)
	staff, err := tokens.SignAccessToken(auth.AccessClaims{UserID: "u1"}, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"not admin", "Bearer " + staff, http.StatusForbidden},
		{"admin", "bearer " + admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestErrorHandler_MapsSentinels(t *testing.T) {
	engine := gin.New()
	engine.Use(ErrorHandler(logger.Nop()))
	engine.GET("/fail", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("%w: widgets", realtime_errors.ErrUnknownTable))
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"unknown table: widgets","code":"UNKNOWN_TABLE"}`, w.Body.String())
}

func TestErrorHandler_EchoesRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestIDMiddleware(), ErrorHandler(logger.Nop()))
	engine.GET("/fail", func(c *gin.Context) {
		_ = c.Error(realtime_errors.ErrNotSubscribed)
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(RequestIDHeader, "trace-7")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"not subscribed","code":"NOT_SUBSCRIBED","request_id":"trace-7"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{realtime_errors.ErrUnknownTable, http.StatusNotFound, "UNKNOWN_TABLE"},
		{realtime_errors.ErrNotSubscribed, http.StatusNotFound, "NOT_SUBSCRIBED"},
		{realtime_errors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{realtime_errors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("subscribing to orders: %w", realtime_errors.ErrFeedClosed), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{fmt.Errorf("unable to acquire postgres connection: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestIDMiddleware())
	engine.GET("/", func(c *gin.Context) {
		id, _ := c.Request.Context().Value(logger.RequestIdKey).(string)
		c.String(http.StatusOK, id)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 32)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (f fakeLimiter) AllowConnect(context.Context, string) (*redis.RateLimitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &redis.RateLimitResult{Allowed: f.allowed, Limit: 30, ResetIn: 42 * time.Second}, nil
}

func TestWebSocketRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		limiter fakeLimiter
		status  int
	}{
		{"allowed", fakeLimiter{allowed: true}, http.StatusOK},
		{"limited", fakeLimiter{allowed: false}, http.StatusTooManyRequests},
		{"redis down", fakeLimiter{err: errors.New("dial tcp")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.GET("/ws", WebSocketRateLimitMiddleware(tt.limiter), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.limiter.err == nil {
				assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))
				assert.Equal(t, "42", w.Header().Get("X-RateLimit-Reset"))
			}
		})
	}
}
