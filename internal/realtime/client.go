package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"storefront/internal/middleware"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var errClientClosed = errors.New("client closed")

// inbound is the shape of every client to server message.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client adapts one websocket connection to the hub's Transport.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	token   string
	handler *WebSocketHandler
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Deliver queues frame without blocking.
func (c *Client) Deliver(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close stops the write pump, which sends a close frame and drops the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// ReadPump reads messages from the WebSocket connection
// Learning: Each connection has its own goroutine reading from the socket
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.handler.hub.Unregister(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handler.hub.Touch(c.id)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		c.handler.hub.Touch(c.id)

		if !c.limiter.Allow() {
			c.log.Debug("inbound message dropped by rate limit")
			continue
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Debug("malformed inbound message", zap.Error(err))
			continue
		}

		msgCtx, span := middleware.StartSpan(ctx, "WebSocket.ProcessMessage",
			attribute.String("conn.id", c.id),
			attribute.String("event", msg.Event),
			attribute.Int("message.size", len(message)),
		)
		c.handler.dispatch(msgCtx, c, msg)
		span.End()
	}
}

// WritePump writes messages to the WebSocket connection
// Learning: Separate goroutine for writing prevents blocking on slow clients
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per message; clients parse each as a single JSON value.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
