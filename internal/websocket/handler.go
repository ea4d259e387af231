package websocket

import (
	"context"
	"net/http"
	"strings"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	tokens     *auth.TokenService
	hub        *Hub
	authorizer *GroupAuthorizer
	upgrader   websocket.Upgrader
}

func NewHandler(tokens *auth.TokenService, hub *Hub, authorizer *GroupAuthorizer) *Handler {
	return &Handler{
		tokens:     tokens,
		hub:        hub,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Connect upgrades an authenticated request and keeps the connection until the
// client goes away.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	claims, err := h.tokens.ParseAccessToken(strings.TrimSpace(token))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.ErrorFromContext(c.Request.Context(), "unauthorized", "UNAUTHORIZED"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, claims)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	for _, group := range h.authorizer.DefaultGroups(claims) {
		h.hub.Join(client, group)
	}
	go client.WriteLoop(ctx)

	client.ReadLoop(h.hub, h.authorizer)

	h.hub.Unregister(client)
}
