package server

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"huelink/internal/core"

	"github.com/gorilla/websocket"
)

// Handler is the interpreter the session layer hands decoded commands to.
type Handler interface {
	Handle(ctx context.Context, cmd core.Command) core.Response
}

// Sink delivers response frames to one connected client. Implementations
// serialize concurrent writers; responses from detached commands may
// land on the connection at any time.
type Sink interface {
	ID() string
	Send(resp core.Response) error
	Close() error
}

// tcpClient frames responses as one JSON object plus a newline.
type tcpClient struct {
	id   string
	conn net.Conn
	mu   sync.Mutex
}

func (c *tcpClient) ID() string { return c.id }

func (c *tcpClient) Send(resp core.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.conn.Write(append(data, '\n'))
	return err
}

func (c *tcpClient) Close() error { return c.conn.Close() }

// wsClient frames responses as one JSON object per text frame.
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(resp core.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(resp)
}

func (c *wsClient) Close() error { return c.conn.Close() }
