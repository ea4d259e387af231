package websocket

import (
	"context"
	"sync"

	"restaurant-realtime/internal/events"
	"restaurant-realtime/internal/metrics"

	"go.uber.org/zap"
)

type requestKind int

const (
	registerRequest requestKind = iota
	unregisterRequest
	joinRequest
	leaveRequest
)

// request is a membership change processed by the hub's event loop. A single
// queue keeps one client's register, join and unregister in order.
type request struct {
	kind   requestKind
	client *Client
	group  string
}

// Hub manages websocket client connections and delivery-group membership.
// It implements events.Emitter.
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client
	clients map[string]*Client

	// groups maps a delivery group to the set of clients in it
	groups map[string]map[*Client]struct{}

	requests chan request
	logger   *socketLogger
}

var _ events.Emitter = (*Hub)(nil)

// NewHub creates a new websocket hub
func NewHub(l *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		groups:   make(map[string]map[*Client]struct{}),
		requests: make(chan request, 512),
		logger:   newSocketLogger(l),
	}
}

// Run starts the hub's event loop. Every client is disconnected when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case req := <-h.requests:
			switch req.kind {
			case registerRequest:
				h.addClient(req.client)
			case unregisterRequest:
				h.removeClient(req.client)
			case joinRequest:
				h.joinGroup(req.client, req.group)
			case leaveRequest:
				h.leaveGroup(req.client, req.group)
			}
		}
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.requests <- request{kind: registerRequest, client: client}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	h.requests <- request{kind: unregisterRequest, client: client}
}

// Join adds a client to a delivery group
func (h *Hub) Join(client *Client, group string) {
	h.requests <- request{kind: joinRequest, client: client, group: group}
}

// Leave removes a client from a delivery group
func (h *Hub) Leave(client *Client, group string) {
	h.requests <- request{kind: leaveRequest, client: client, group: group}
}

// Broadcast sends an event to every connected client
func (h *Hub) Broadcast(_ context.Context, event string, payload events.Payload) error {
	return h.send(events.NewEnvelope("", event, payload))
}

// EmitTo sends an event to the clients in group
func (h *Hub) EmitTo(_ context.Context, group, event string, payload events.Payload) error {
	return h.send(events.NewEnvelope(group, event, payload))
}

func (h *Hub) send(env events.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	h.Deliver(env.Group, data)
	return nil
}

// Deliver sends an encoded envelope to a group, or to every client when group
// is empty. Clients with a full buffer miss the message.
func (h *Hub) Deliver(group string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if group == "" {
		for _, c := range h.clients {
			h.sendTo(c, data)
		}
		return
	}
	for c := range h.groups[group] {
		h.sendTo(c, data)
	}
}

// sendDirect queues data for a single client if it is still registered.
func (h *Hub) sendDirect(c *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.clients[c.ID] == c {
		h.sendTo(c, data)
	}
}

func (h *Hub) sendTo(c *Client, data []byte) {
	if !c.SendMessage(data) {
		h.logger.Warn("client send buffer full", c)
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetGroupSize returns the number of clients in a group
func (h *Hub) GetGroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	metrics.WebsocketClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
	h.logger.Info("client connected", client)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for _, group := range client.Groups() {
		h.dropMember(client, group)
	}
	delete(h.clients, client.ID)
	metrics.WebsocketClients.Set(float64(len(h.clients)))
	close(client.Send)
	h.logger.Info("client disconnected", client)
}

func (h *Hub) joinGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// the client may have disconnected while the request was queued
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if _, ok := h.groups[group]; !ok {
		h.groups[group] = make(map[*Client]struct{})
	}
	h.groups[group][client] = struct{}{}
	client.join(group)
}

func (h *Hub) leaveGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropMember(client, group)
	client.leave(group)
}

// dropMember must be called with h.mu held.
func (h *Hub) dropMember(client *Client, group string) {
	if members, ok := h.groups[group]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	h.groups = make(map[string]map[*Client]struct{})
	metrics.WebsocketClients.Set(0)
}
