package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
	// pongWait is the liveness probe interval: a connection that fails
	// to answer a ping within one interval is terminated.
	pongWait   = 30 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxFrameSize allows profile avatars sent as data URLs.
	maxFrameSize  = 5 << 20
	sendQueueSize = 256
)

// Client is one websocket connection with a buffered outbound queue.
// The hub enqueues serialized events; the write pump drains them.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	info ConnInfo

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		info: info,
	}
}

// Info returns the handshake metadata for this connection.
func (c *Client) Info() ConnInfo {
	return c.info
}

// enqueue queues a payload for delivery. It reports false when the
// client is closed or its queue is full; the caller treats that as a
// skipped recipient, never as a reason to abort fan-out.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed and shuts the outbound queue,
// which ends the write pump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the outbound queue and pings on a ticker. It owns
// all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error conn=%s: %v", c.info.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
