package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"eldercare-server/models"
)

// Client represents a connected WebSocket client
type Client struct {
	Hub  *Hub
	ID   uint
	Role models.UserRole
	Conn *websocket.Conn
	Send chan []byte
}

// Message is the envelope pushed to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageHandler handles a message received from a client
type MessageHandler func(*Client, *Message) error

// Hub manages all WebSocket connections, one per user
type Hub struct {
	clients map[uint]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Message handlers
	MessageHandlers map[string]MessageHandler

	quit chan struct{}
	mu   sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	hub := &Hub{
		clients:         make(map[uint]*Client),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		MessageHandlers: make(map[string]MessageHandler),
		quit:            make(chan struct{}),
	}
	hub.MessageHandlers["ping"] = hub.handlePing
	return hub
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok && old != client {
				// a newer connection replaces the old one
				close(old.Send)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: ID=%d, Role=%s", client.ID, client.Role)

		case client := <-h.Unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.ID]; ok && current == client {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: ID=%d, Role=%s", client.ID, client.Role)

		case <-h.quit:
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Shutdown stops Run and closes every client
func (h *Hub) Shutdown() {
	close(h.quit)
}

// SendToUser sends a message to one connected user
func (h *Hub) SendToUser(userID uint, message *Message) bool {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[userID]
	if !ok {
		return false
	}
	return h.deliver(client, data)
}

// SendToRole sends a message to every connected user holding role and
// reports how many received it
func (h *Hub) SendToRole(role models.UserRole, message *Message, exclude uint) int {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for id, client := range h.clients {
		if client.Role != role || id == exclude {
			continue
		}
		if h.deliver(client, data) {
			sent++
		}
	}
	return sent
}

// deliver never blocks; a full buffer drops the message. Callers hold mu.
func (h *Hub) deliver(client *Client, data []byte) bool {
	select {
	case client.Send <- data:
		return true
	default:
		log.Printf("⚠️ User %d's send buffer is full", client.ID)
		return false
	}
}

// GetConnectedUsers returns a list of currently connected user IDs
func (h *Hub) GetConnectedUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uint, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// handlePing answers application-level pings
func (h *Hub) handlePing(client *Client, _ *Message) error {
	return client.SendMessage(&Message{Type: "pong", Timestamp: time.Now().UTC()})
}
