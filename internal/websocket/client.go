package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"restaurant-realtime/internal/auth"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxFrame   = 4096
)

// Client represents a websocket client connection
type Client struct {
	ID     string            // Unique client ID
	UserID string            // Authenticated user ID
	Claims auth.AccessClaims // Token claims used for group authorization
	Conn   *websocket.Conn   // Websocket connection
	Send   chan []byte       // Outbound message channel
	groups map[string]bool   // Joined delivery groups
	mu     sync.RWMutex      // Protects groups map and conn writes
}

// NewClient creates a new websocket client
func NewClient(conn *websocket.Conn, claims auth.AccessClaims) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: claims.UserID,
		Claims: claims,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		groups: make(map[string]bool),
	}
}

func (c *Client) join(group string) {
	c.mu.Lock()
	c.groups[group] = true
	c.mu.Unlock()
}

func (c *Client) leave(group string) {
	c.mu.Lock()
	delete(c.groups, group)
	c.mu.Unlock()
}

// InGroup checks if the client has joined a group
func (c *Client) InGroup(group string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups[group]
}

// Groups returns a copy of all joined groups
func (c *Client) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	return groups
}

// SendMessage queues a message without blocking. It reports false when the
// buffer is full and the message was dropped.
func (c *Client) SendMessage(msg []byte) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// WriteLoop handles outbound messages from the Send channel
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.mu.Lock()
				_ = c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				c.mu.Unlock()
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
			if err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
		}
	}
}

// clientFrame is what clients send to manage their group membership.
type clientFrame struct {
	Action string `json:"action"` // join|leave
	Group  string `json:"group"`
}

// replyFrame acknowledges or rejects a clientFrame.
type replyFrame struct {
	Event string `json:"event"` // joined|left|error
	Group string `json:"group,omitempty"`
	Error string `json:"error,omitempty"`
}

// ReadLoop processes join/leave frames until the connection fails.
func (c *Client) ReadLoop(hub *Hub, authorizer *GroupAuthorizer) {
	c.Conn.SetReadLimit(maxFrame)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.reply(hub, c.handleFrame(hub, authorizer, data))
	}
}

func (c *Client) handleFrame(hub *Hub, authorizer *GroupAuthorizer, data []byte) replyFrame {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return replyFrame{Event: "error", Error: "malformed frame"}
	}

	switch frame.Action {
	case "join":
		if !authorizer.CanJoin(c.Claims, frame.Group) {
			return replyFrame{Event: "error", Group: frame.Group, Error: "forbidden"}
		}
		hub.Join(c, frame.Group)
		return replyFrame{Event: "joined", Group: frame.Group}
	case "leave":
		hub.Leave(c, frame.Group)
		return replyFrame{Event: "left", Group: frame.Group}
	default:
		return replyFrame{Event: "error", Error: "unknown action"}
	}
}

func (c *Client) reply(hub *Hub, r replyFrame) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	hub.sendDirect(c, data)
}

// close closes the websocket connection
func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}
