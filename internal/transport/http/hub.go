package http

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 32

// envelope is the wire framing for every message in both directions.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one connected websocket peer with its writer-pump channel.
// All writes to the socket go through send so only the pump goroutine
// touches the connection.
type client struct {
	conn *websocket.Conn
	send chan envelope
}

// Hub tracks live connections and room groups, and implements app.Emitter.
// Group membership follows the protocol (createRoom/joinRoom subscribe a
// connection); dropping a connection removes it from every group.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// register adds a connection under the given id and starts its writer pump.
func (h *Hub) register(connID string, conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan envelope, sendBuffer)}
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()

	go func() {
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.String("conn", connID), zap.Error(err))
				return
			}
		}
	}()
	return c
}

// drop removes the connection from the hub and every room group and closes
// its writer pump. Idempotent.
func (h *Hub) drop(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	close(c.send)
}

// Subscribe adds the connection to a room's broadcast group.
func (h *Hub) Subscribe(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]struct{})
	}
	h.rooms[roomID][connID] = struct{}{}
}

// SendTo delivers one event to one connection. Unknown connections and full
// send buffers drop the message; delivery is fire-and-forget.
func (h *Hub) SendTo(connID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.push(connID, c, envelope{Type: event, Payload: payload})
}

// Broadcast delivers one event to every connection in a room group.
func (h *Hub) Broadcast(roomID, event string, payload any) {
	h.mu.RLock()
	targets := make(map[string]*client, len(h.rooms[roomID]))
	for connID := range h.rooms[roomID] {
		if c, ok := h.clients[connID]; ok {
			targets[connID] = c
		}
	}
	h.mu.RUnlock()

	msg := envelope{Type: event, Payload: payload}
	for connID, c := range targets {
		h.push(connID, c, msg)
	}
}

func (h *Hub) push(connID string, c *client, msg envelope) {
	select {
	case c.send <- msg:
	default:
		h.log.Warn("ws send buffer full, dropping message",
			zap.String("conn", connID), zap.String("event", msg.Type))
	}
}
