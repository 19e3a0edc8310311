// Package server is the session and framing layer: it accepts persistent
// client connections, cuts the byte stream into newline-delimited JSON
// messages and writes one JSON response per message back on the
// originating connection.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"huelink/internal/core"

	"github.com/google/uuid"
)

const (
	// A single command line comfortably fits in the initial buffer;
	// the cap guards against a client streaming garbage without a
	// newline.
	initialLineBuffer = 64 * 1024
	maxLineBuffer     = 1024 * 1024
)

// Server owns the TCP listener and, when configured, the WebSocket
// endpoint. Both transports feed the same handler and hub.
type Server struct {
	ctx     context.Context
	handler Handler
	bus     *core.EventBus
	hub     *Hub

	getSchedules func() []core.ScheduleEntry
	getPatterns  func() ([]string, error)

	addr   string
	wsAddr string

	mu       sync.Mutex
	ln       net.Listener
	wsServer *http.Server
	wg       sync.WaitGroup
}

// NewServer wires the session layer. getSchedules and getPatterns feed
// list broadcasts when those collections change; either may be nil.
func NewServer(ctx context.Context, handler Handler, bus *core.EventBus, port, wsAddr string,
	getSchedules func() []core.ScheduleEntry, getPatterns func() ([]string, error)) *Server {

	s := &Server{
		ctx:          ctx,
		handler:      handler,
		bus:          bus,
		hub:          NewHub(),
		getSchedules: getSchedules,
		getPatterns:  getPatterns,
		addr:         ":" + port,
		wsAddr:       wsAddr,
	}
	if bus != nil {
		go s.listenEvents()
	}
	return s
}

// Hub exposes the client registry, mainly for broadcasts from outside
// the session layer.
func (s *Server) Hub() *Hub { return s.hub }

// Addr reports the bound listener address, or nil before ListenAndServe
// has opened it. Lets callers bind port 0 and discover the real port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe blocks on the TCP accept loop. The WebSocket endpoint,
// when configured, runs on its own listener.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	if s.wsAddr != "" {
		go s.serveWebSocket()
	}

	log.Printf("[Server] Listening on %s", s.addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Shutdown closes the listener and all client connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
	s.shutdownWebSocket(ctx)
	s.hub.CloseAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleConn runs one TCP session: hello first, then a read loop that
// holds partial lines until their newline arrives. A line above the cap
// is discarded up to its newline and answered with a single error
// frame; bad input never closes the connection.
func (s *Server) handleConn(conn net.Conn) {
	client := &tcpClient{id: shortID(), conn: conn}
	s.hub.Register(client)
	defer func() {
		s.hub.Unregister(client)
		conn.Close()
	}()

	if err := client.Send(core.Hello()); err != nil {
		log.Printf("[Server] Hello to %s failed: %v", client.id, err)
		return
	}

	reader := bufio.NewReaderSize(conn, initialLineBuffer)
	var buf []byte
	dropping := false

	for {
		chunk, err := reader.ReadSlice('\n')
		if !dropping {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBuffer {
				dropping = true
				buf = nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("[Server] Read error on %s: %v", client.id, err)
			}
			return
		}

		if dropping {
			dropping = false
			_ = client.Send(core.Errorf("message exceeds maximum length"))
			continue
		}

		line := strings.TrimSpace(string(buf))
		buf = buf[:0]
		if line == "" {
			continue
		}
		// Each message gets its own goroutine so a blocking command
		// (flash) delays only its own response, not the session.
		s.wg.Add(1)
		go func(line string) {
			defer s.wg.Done()
			s.dispatch(client, line)
		}(line)
	}
}

// dispatch decodes and handles one message. Malformed JSON and panics
// both become exactly one error frame; the connection stays open.
func (s *Server) dispatch(c Sink, line string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Server] Panic handling message from %s: %v", c.ID(), r)
			_ = c.Send(core.Errorf(fmt.Sprintf("internal error: %v", r)))
		}
	}()

	var cmd core.Command
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		_ = c.Send(core.Errorf("invalid JSON: " + err.Error()))
		return
	}

	resp := s.handler.Handle(s.ctx, cmd)
	if err := c.Send(resp); err != nil {
		log.Printf("[Server] Write to %s failed: %v", c.ID(), err)
	}
}

// listenEvents turns internal events into status frames for all clients.
func (s *Server) listenEvents() {
	sub := s.bus.Subscribe(
		core.LightStateChangedEvent,
		core.EffectChangedEvent,
		core.PatternChangedEvent,
		core.ScheduleListChangedEvent,
		core.PatternListChangedEvent,
	)

	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-sub:
			switch event.Type {
			case core.LightStateChangedEvent:
				if p, ok := event.Payload.(map[string]interface{}); ok {
					lightID, _ := p["lightId"].(string)
					group, _ := p["group"].(string)
					s.hub.Broadcast(core.Response{Type: "light_state", LightID: lightID, Group: group})
				}
			case core.EffectChangedEvent:
				if p, ok := event.Payload.(map[string]interface{}); ok {
					lightID, _ := p["lightId"].(string)
					running, _ := p["running"].(string)
					s.hub.Broadcast(core.Response{Type: "effect_status", LightID: lightID, Running: running})
				}
			case core.PatternChangedEvent:
				if p, ok := event.Payload.(map[string]interface{}); ok {
					running, _ := p["running"].(string)
					s.hub.Broadcast(core.Response{Type: "pattern_status", Running: running})
				}
			case core.ScheduleListChangedEvent:
				if s.getSchedules != nil {
					s.hub.Broadcast(core.SchedulesList(s.getSchedules()))
				}
			case core.PatternListChangedEvent:
				if s.getPatterns != nil {
					if patterns, err := s.getPatterns(); err == nil {
						s.hub.Broadcast(core.PatternsList(patterns))
					}
				}
			}
		}
	}
}

// shortID labels a session in the logs.
func shortID() string {
	return uuid.NewString()[:8]
}
