package models

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Observer roles. Plain observers receive public state; admins also get
// the full ballot snapshot and may issue privileged operations.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// WSMessage is the event envelope exchanged with observers.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client is one connected observer session.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan WSMessage

	// Role is written through Hub.SetRole. Concurrent readers go through
	// Hub.RoleOf or hold the hub mutex; only the hub itself reads the
	// field directly.
	Role string

	// Domain is the voter identifier bound by userLogin. Only the
	// client's own read loop touches it.
	Domain string
}

// Hub tracks connected observers and fans events out to them, either to
// everyone or to the admin room only. All delivery, including targeted
// replies, goes through the hub so a dropped client is never written to.
type Hub struct {
	Clients   map[*Client]bool
	Broadcast chan WSMessage
	AdminCast chan WSMessage
	Mutex     sync.Mutex
}

// NewHub initializes and returns a new Hub.
func NewHub() *Hub {
	return &Hub{
		Clients:   make(map[*Client]bool),
		Broadcast: make(chan WSMessage, 256),
		AdminCast: make(chan WSMessage, 256),
	}
}

// Run starts the hub's fan-out loop.
func (h *Hub) Run() {
	for {
		select {
		case message := <-h.Broadcast:
			h.deliver(message, false)
		case message := <-h.AdminCast:
			h.deliver(message, true)
		}
	}
}

// Add registers an observer. Synchronous, so callers may Send to the
// client as soon as Add returns.
func (h *Hub) Add(client *Client) {
	h.Mutex.Lock()
	h.Clients[client] = true
	h.Mutex.Unlock()
	log.Debug().Str("client", client.ID).Msg("client registered")
}

// Remove drops an observer and closes its send channel. Idempotent.
func (h *Hub) Remove(client *Client) {
	h.Mutex.Lock()
	if _, ok := h.Clients[client]; ok {
		delete(h.Clients, client)
		close(client.Send)
		log.Debug().Str("client", client.ID).Msg("client unregistered")
	}
	h.Mutex.Unlock()
}

// deliver pushes a message to every connected client, or only to the
// admin room. Clients with a full send buffer are dropped.
func (h *Hub) deliver(message WSMessage, adminOnly bool) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()
	for client := range h.Clients {
		if adminOnly && client.Role != RoleAdmin {
			continue
		}
		h.sendLocked(client, message)
	}
}

// Send delivers an event to one observer's session. A no-op when the
// client has already been dropped, so reply paths never write to a
// closed channel.
func (h *Hub) Send(client *Client, message WSMessage) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()
	if _, ok := h.Clients[client]; !ok {
		return
	}
	h.sendLocked(client, message)
}

func (h *Hub) sendLocked(client *Client, message WSMessage) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.Clients, client)
	}
}

// SetRole changes a client's role under the hub mutex so concurrent
// deliveries observe a consistent value.
func (h *Hub) SetRole(client *Client, role string) {
	h.Mutex.Lock()
	client.Role = role
	h.Mutex.Unlock()
}

// RoleOf reads a client's role under the hub mutex.
func (h *Hub) RoleOf(client *Client) string {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()
	return client.Role
}

// BroadcastAll queues an event for every connected observer.
func (h *Hub) BroadcastAll(event string, data interface{}) {
	h.Broadcast <- WSMessage{Event: event, Data: data}
}

// BroadcastAdmins queues an event for the admin room only.
func (h *Hub) BroadcastAdmins(event string, data interface{}) {
	h.AdminCast <- WSMessage{Event: event, Data: data}
}

// WritePump sends messages from the Send channel to the WebSocket
// connection. Runs in its own goroutine per client.
func (c *Client) WritePump() {
	defer func() {
		c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteJSON(message); err != nil {
			log.Debug().Err(err).Str("client", c.ID).Msg("write error")
			break
		}
	}
}
