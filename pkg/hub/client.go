package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 * 1024

	// A call emits a few dozen events; 256 covers several concurrent calls
	// before a watcher counts as slow.
	sendBuffer = 256
)

// Client is one watcher on the events socket. A client with a job set
// only receives events of that job.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	job  string
	send chan Message
}

// NewClient registers conn with the hub. job may be empty to watch
// every call.
func NewClient(hub *Hub, conn *websocket.Conn, job string) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		job:  job,
		send: make(chan Message, sendBuffer),
	}
	select {
	case hub.register <- c:
	case <-hub.done:
		close(c.send)
	}
	return c
}

// Wants reports whether msg belongs to the calls this client watches.
func (c *Client) Wants(msg Message) bool {
	return c.job == "" || msg.JobID == "" || msg.JobID == c.job
}

// Run blocks until the watcher goes away.
func (c *Client) Run() {
	go c.writeLoop()
	c.readLoop()
}

// readLoop discards whatever the watcher sends. Reading is what surfaces
// pongs and disconnects.
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on the connection.
func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				c.hub.logger.Debug("write failed", "job", c.job, "error", err)
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
