package server

import (
	"context"
	"log"
	"net/http"

	"huelink/internal/core"

	"github.com/gorilla/websocket"
)

// WebSocket transport: same message schema as the TCP listener, one JSON
// object per text frame instead of newline framing.

var upgrader = websocket.Upgrader{
	// The daemon trusts its local network the same way the TCP
	// listener does; there is no client authentication either way.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) serveWebSocket() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	srv := &http.Server{Addr: s.wsAddr, Handler: mux}
	s.mu.Lock()
	s.wsServer = srv
	s.mu.Unlock()

	log.Printf("[Server] WebSocket endpoint on %s/ws", s.wsAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[Server] WebSocket server error: %v", err)
	}
}

func (s *Server) shutdownWebSocket(ctx context.Context) {
	s.mu.Lock()
	srv := s.wsServer
	s.mu.Unlock()
	if srv != nil {
		_ = srv.Shutdown(ctx)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] WebSocket upgrade error: %v", err)
		return
	}

	client := &wsClient{id: shortID(), conn: conn}
	s.hub.Register(client)
	defer func() {
		s.hub.Unregister(client)
		conn.Close()
	}()

	if err := client.Send(core.Hello()); err != nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.wg.Add(1)
		go func(line string) {
			defer s.wg.Done()
			s.dispatch(client, line)
		}(string(msg))
	}
}
