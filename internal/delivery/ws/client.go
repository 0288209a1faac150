// Package ws is the WebSocket transport adapter: it owns the physical
// connections and pumps frames between gorilla/websocket and the room core.
// The room never touches the underlying socket; it addresses a connection
// only through its Conn interface.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast/internal/domain"
	"github.com/roomcast/roomcast/internal/room"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client owns one WebSocket connection on behalf of a room. Outbound frames
// flow through a buffered send channel so that a slow peer never blocks the
// room's fan-out; a full buffer counts as a delivery failure.
type Client struct {
	id   string
	room *room.Room
	conn *websocket.Conn
	log  zerolog.Logger
	send chan []byte

	maxMessageSize int64

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded connection for the given room.
func NewClient(r *room.Room, conn *websocket.Conn, log zerolog.Logger, maxMessageSize, sendBufferSize int) *Client {
	if maxMessageSize <= 0 {
		maxMessageSize = domain.MaxMessageSize
	}
	if sendBufferSize <= 0 {
		sendBufferSize = 256
	}
	id := uuid.New().String()
	return &Client{
		id:             id,
		room:           r,
		conn:           conn,
		log:            log.With().Str("conn_id", id).Logger(),
		send:           make(chan []byte, sendBufferSize),
		maxMessageSize: int64(maxMessageSize),
	}
}

// ID uniquely identifies this physical connection.
func (c *Client) ID() string { return c.id }

// Send queues a frame without blocking. False means the connection is gone
// or its buffer is full; the room treats that as an implicit close.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close shuts the outbound channel, which makes WritePump send a close frame
// and tear the socket down. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads frames from the socket and feeds them to the room. It runs
// in its own goroutine and reports the close to the room on exit, whatever
// caused it.
func (c *Client) ReadPump() {
	defer func() {
		c.room.Disconnect(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
		c.room.HandleFrame(c.id, frame)
	}
}

// WritePump writes queued frames to the socket and keeps the connection
// alive with protocol-level pings. One frame per WebSocket message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Room dropped this connection.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
