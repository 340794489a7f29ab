// Package server streams mesh frames to viewers over websockets.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Frame is one streamed snapshot of the surface: per-vertex attributes
// (position.xyz, normal.xyz, food/threshold; seven floats per vertex) and
// a triangle index buffer.
type Frame struct {
	Step       int       `json:"step"`
	Cells      int       `json:"cells"`
	Attributes []float64 `json:"attributes"`
	Indexes    [][3]int  `json:"indexes"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Server accepts websocket viewers on /ws and broadcasts frames to them.
type Server struct {
	addr string
	ln   net.Listener

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates a server that will listen on addr.
func New(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*client]struct{}),
	}
}

// Start begins listening and serving in a background goroutine. It returns
// once the listener is bound so callers fail fast on a bad address.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.ln = ln

	go func() {
		if err := http.Serve(ln, mux); err != nil {
			slog.Error("http serve error", "error", err)
		}
	}()
	slog.Info("streaming mesh frames", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address. Valid after Start.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	slog.Info("viewer connected", "remote", conn.RemoteAddr().String())

	// Viewers never send data, but the read loop is what processes close
	// and control frames; a clean disconnect surfaces here as a read error.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(c)
				slog.Info("viewer disconnected", "remote", conn.RemoteAddr().String())
				return
			}
		}
	}()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

// Broadcast sends a frame to every connected viewer, dropping clients
// whose connection has failed.
func (s *Server) Broadcast(f Frame) {
	s.mu.Lock()
	list := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		list = append(list, c)
	}
	s.mu.Unlock()

	for _, c := range list {
		if err := c.send(f); err != nil {
			slog.Info("dropping viewer", "error", err)
			s.drop(c)
		}
	}
}

// HasClients reports whether any viewer is connected, so callers can skip
// building frames nobody will receive.
func (s *Server) HasClients() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) > 0
}
