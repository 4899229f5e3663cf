package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBuffer bounds the per-connection outbound queue. A client that
// cannot drain this many messages gets further messages dropped rather
// than blocking the coordinator.
const sendBuffer = 256

// DisconnectHandler is invoked after a connection is removed from the
// hub, outside any hub lock.
type DisconnectHandler func(ctx context.Context, connectionID string)

// Hub tracks live websocket connections and their room memberships.
// It is the delivery side of the coordinator: broadcasts for one room
// happen in call order because each connection drains a FIFO queue.
type Hub struct {
	mu      sync.Mutex
	conns   map[string]*Client
	rooms   map[string]map[string]*Client
	onClose []DisconnectHandler
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]*Client),
	}
}

// OnDisconnect registers a handler fired whenever a connection leaves
// the hub. Must be called before the first Add.
func (h *Hub) OnDisconnect(fn DisconnectHandler) {
	h.onClose = append(h.onClose, fn)
}

// Add registers an upgraded connection, assigns it an identity and
// starts its write pump.
func (h *Hub) Add(conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}

	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	go c.writePump()

	return c
}

// Remove drops the connection from the hub and every room, closes its
// queue, then fires the disconnect handlers.
func (h *Hub) Remove(ctx context.Context, connectionID string) {
	h.mu.Lock()
	c, ok := h.conns[connectionID]
	if ok {
		delete(h.conns, connectionID)
		for room, members := range h.rooms {
			delete(members, connectionID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	close(c.send)

	for _, fn := range h.onClose {
		fn(ctx, connectionID)
	}
}

// JoinRoom adds the connection to a room. Unknown connections are
// ignored: the client may have disconnected already.
func (h *Hub) JoinRoom(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connectionID]
	if !ok {
		return
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connectionID] = c
}

// Broadcast queues an event for every member of a room.
func (h *Hub) Broadcast(room, event string, payload any) {
	msg := Message{Event: event, Data: payload}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.rooms[room] {
		c.enqueue(msg)
	}
}

// SendTo queues an event for a single connection.
func (h *Hub) SendTo(connectionID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connectionID]
	if !ok {
		return
	}

	c.enqueue(Message{Event: event, Data: payload})
}

func (c *Client) enqueue(msg Message) {
	select {
	case c.send <- msg:
	default:
		slog.Warn("ws: send queue full, dropping message",
			"connection", c.ID,
			"event", msg.Event,
		)
	}
}
