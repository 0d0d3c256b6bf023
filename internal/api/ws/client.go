package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent before it is dropped.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound keystroke frames.
	maxMessageSize = 64 * 1024

	// queueSize is the per-client outbound frame buffer. A viewer that
	// falls this far behind is disconnected.
	queueSize = 256
)

var (
	ErrQueueFull = errors.New("client send queue full")
	ErrClosed    = errors.New("client closed")
)

// Client is one WebSocket viewer. Output is queued by Send and written by
// the client's own write pump so a slow peer never blocks the broadcast.
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

// Send queues data for delivery. It never blocks.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Close stops the write pump, which closes the connection. Queued frames
// are not flushed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Done is closed once the client has been closed
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// writePump drains the queue to the connection and keeps it alive with
// pings. It owns every write on conn.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				c.logger.Debug("Write failed", zap.String("client", c.id), zap.Error(err))
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump delivers inbound messages to fn until the peer disconnects.
func (c *Client) readPump(fn func(data []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
				websocket.CloseAbnormalClosure) {
				c.logger.Debug("Read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			fn(data)
		}
	}
}
