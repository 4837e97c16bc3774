package server

import (
	"encoding/json"
	"sync"
)

// client is one connected board. Frames are queued on a buffered channel and
// written by the connection's own writer goroutine.
type client struct {
	out chan []byte
}

// Hub fans pushed messages out to every connected client, so a mutation made
// on one board shows up on all of them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) add() *client {
	c := &client{out: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
	h.mu.Unlock()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a message to every client. Slow clients lose the frame
// rather than stalling the rest; they recover on their next full fetch.
func (h *Hub) Broadcast(msg any) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- frame:
		default:
		}
	}
	return nil
}

// sendTo queues a message for a single client.
func sendTo(c *client, msg any) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.out <- frame:
	default:
	}
	return nil
}
