package handler

import (
	"context"
	"net/http"

	"restaurant-realtime/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// ClientCounter is satisfied by *websocket.Hub.
type ClientCounter interface {
	GetClientCount() int
}

type HealthHandler struct {
	ping    Pinger
	manager SubscriptionManager
	clients ClientCounter
}

func NewHealthHandler(ping Pinger, manager SubscriptionManager, clients ClientCounter) *HealthHandler {
	return &HealthHandler{ping: ping, manager: manager, clients: clients}
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
}

// Health is unhealthy when the database does not answer. Subscriptions and
// client counts are informational.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.ErrorFromContext(c.Request.Context(), err.Error(), "UNHEALTHY"))
			return
		}
	}

	resp := httpdto.HealthResponse{Status: "healthy", Subscriptions: h.manager.ListActive()}
	if h.clients != nil {
		resp.Clients = h.clients.GetClientCount()
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
