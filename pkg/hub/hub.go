package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Guards clients for ClientCount
	mu sync.RWMutex

	running bool

	// Closed when Run returns
	done chan struct{}
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called in a goroutine, once.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.running = false
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.Wants(message) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client's buffer is full, drop it
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client", "job", client.job)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Data: data})
	return nil
}

// Publish broadcasts a job event. Its signature matches the jobs registry
// listener.
func (h *Hub) Publish(jobID string, e call.Event) {
	msg, err := NewEventMessage(jobID, e)
	if err != nil {
		h.logger.Warn("encode event failed", "error", err)
		return
	}
	h.Broadcast(msg)
}

// Handler returns the fiber handler that upgrades a request and attaches
// the connection to the hub. A "job" query parameter limits the client to
// the events of that job.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		NewClient(h, conn, conn.Query("job")).Run()
	})
}

// Upgrade rejects requests that are not websocket upgrades.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
