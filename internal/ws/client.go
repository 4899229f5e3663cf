package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readTimeout  = 5 * time.Minute
	writeTimeout = 10 * time.Second
)

// Envelope is one inbound client message: the event name plus an
// event-specific body decoded by the dispatcher.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Message is one outbound server message.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one registered connection. Writes go through the send
// queue only; the read side belongs to the dispatcher that accepted
// the connection.
type Client struct {
	ID string

	conn *websocket.Conn
	send chan Message
}

// ReadEnvelope reads and decodes the next inbound message. It refreshes
// the read deadline on every call.
func (c *Client) ReadEnvelope(env *Envelope) error {
	if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return err
	}
	return c.conn.ReadJSON(env)
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			slog.Debug("ws: write failed", "connection", c.ID, "error", err)
			return
		}
	}
}
