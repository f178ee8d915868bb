// Package hub fans events out to connected dashboard clients: session
// invalidations go to the affected admin's connections, property status
// changes go to everyone currently watching.
package hub

import (
	"encoding/json"
	"log"
	"sync"
)

const (
	EventSessionInvalidated    = "session_invalidated"
	EventPropertyStatusChanged = "property_status_changed"
)

type Event struct {
	Type string      `json:"type"`
	Body interface{} `json:"body,omitempty"`
}

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	UserID string
	Writer Writer
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func New() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.UserID] == nil {
		h.connections[conn.UserID] = make(map[*Connection]struct{})
	}
	h.connections[conn.UserID][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.UserID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.UserID)
	}
}

// SendEvent delivers an event to every connection of one user.
func (h *Hub) SendEvent(userID string, event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal %s: %v", event.Type, err)
		return
	}
	h.send(h.connsFor(userID), message)
}

// BroadcastEvent delivers an event to every connected user.
func (h *Hub) BroadcastEvent(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal %s: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	conns := make([]*Connection, 0)
	for _, set := range h.connections {
		for c := range set {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	h.send(conns, message)
}

// Connections reports how many connections a user currently has.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

func (h *Hub) connsFor(userID string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.connections[userID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

func (h *Hub) send(conns []*Connection, message []byte) {
	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}
