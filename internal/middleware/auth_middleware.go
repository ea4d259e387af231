package middleware

import (
	"context"
	"net/http"
	"strings"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/transport/httpdto"
	"restaurant-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

func AuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.ParseAccessToken(extractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.ErrorFromContext(c.Request.Context(), "unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		ctx := context.WithValue(c.Request.Context(), logger.UserIdKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok || claims.Role != role {
			c.JSON(http.StatusForbidden, httpdto.ErrorFromContext(c.Request.Context(), "forbidden", "FORBIDDEN"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by AuthMiddleware
func ClaimsFromContext(c *gin.Context) (auth.AccessClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return auth.AccessClaims{}, false
	}
	claims, ok := v.(auth.AccessClaims)
	return claims, ok
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
