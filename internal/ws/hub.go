package ws

import (
	"encoding/json"
	"fmt"
	"sync"
)

const AdminRoom = "admin-room"

// UserRoom names the per-user session room.
func UserRoom(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

// Broker is the realtime transport: fire-and-forget room publish. The core
// only depends on this interface so an in-process hub can later be swapped
// for a shared broker.
type Broker interface {
	Emit(room, event string, payload interface{})
	EmitAll(event string, payload interface{})
}

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID   uint
	Username string
	Role     string
	Send     chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub is the in-process Broker: it tracks which connections belong to which
// room and pushes events without blocking or retrying.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Emit publishes an event to every connection in the room. Delivery is
// best-effort: a slow or disconnected client just misses the event.
func (h *Hub) Emit(room, event string, payload interface{}) {
	data, _ := json.Marshal(map[string]interface{}{"event": event, "data": payload})
	h.mu.RLock()
	members := h.rooms[room]
	clients := make([]*Client, 0, len(members))
	for c := range members {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// EmitAll publishes to every connected client across all rooms.
func (h *Hub) EmitAll(event string, payload interface{}) {
	data, _ := json.Marshal(map[string]interface{}{"event": event, "data": payload})
	h.mu.RLock()
	seen := make(map[*Client]struct{})
	for _, members := range h.rooms {
		for c := range members {
			seen[c] = struct{}{}
		}
	}
	clients := make([]*Client, 0, len(seen))
	for c := range seen {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
