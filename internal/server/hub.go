package server

import (
	"log"
	"sync"

	"huelink/internal/core"
)

// Hub tracks connected clients across both transports so server-initiated
// status frames reach everyone.
type Hub struct {
	mu      sync.Mutex
	clients map[Sink]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Sink]bool)}
}

func (h *Hub) Register(c Sink) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	log.Printf("[Server] Client %s connected", c.ID())
}

func (h *Hub) Unregister(c Sink) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	log.Printf("[Server] Client %s disconnected", c.ID())
}

// Broadcast sends a frame to every connected client. A client that fails
// to take the write is dropped.
func (h *Hub) Broadcast(resp core.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.Send(resp); err != nil {
			log.Printf("[Server] Broadcast to %s failed: %v", c.ID(), err)
			c.Close()
			delete(h.clients, c)
		}
	}
}

// CloseAll disconnects every client; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}
