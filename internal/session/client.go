package session

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"resumegen/internal/metrics"
	"resumegen/internal/models"
)

// A client that stops draining its queue is reported as a failed delivery
// instead of stalling the fan-out for everyone else.
var (
	ErrSendQueueFull = errors.New("client send queue full")
	ErrClientClosed  = errors.New("client closed")
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
)

// Client is one live websocket connection with its verified identity.
// The connection id is generated by the transport layer and never reused.
// Frames are queued and written by a single goroutine per client, so frames
// handed to Send in order arrive in order.
type Client struct {
	ID       string
	UserID   string
	UserName string

	conn      *websocket.Conn
	send      chan models.WSFrame
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	hook func(models.WSFrame) error
}

func NewClient(id, userID, userName string, conn *websocket.Conn) *Client {
	c := &Client{
		ID:       id,
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		send:     make(chan models.WSFrame, sendQueueSize),
		done:     make(chan struct{}),
	}
	go c.writePump()
	return c
}

// SetSendHook replaces the default WebSocket writer (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame) error) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send queues one frame for delivery. It never blocks: when the queue is full
// the frame is dropped and the caller told, so one stalled client can never
// hold up a broadcast to anyone else.
func (c *Client) Send(frame models.WSFrame) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				metrics.DeliveryFailures.Inc()
			}
		}
	}
}

func (c *Client) write(frame models.WSFrame) error {
	c.mu.Lock()
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		return hook(frame)
	}
	if c.conn == nil {
		return nil
	}
	// A stalled peer times out here instead of wedging the pump forever.
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}

// Close stops the writer and closes the underlying connection. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
