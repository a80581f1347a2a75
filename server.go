package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gltf-data-viewer/internal/viewer"
)

const writeWait = 5 * time.Second

// panelClient serializes writes to one connection.
type panelClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *panelClient) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// WebSocketServer carries panel commands from browsers to the render loop
// and snapshots back
type WebSocketServer struct {
	log      *zap.Logger
	clients  map[*panelClient]bool
	mu       sync.RWMutex
	// sendMu orders snapshot writes so a joining panel never sees an
	// older snapshot after a newer one.
	sendMu   sync.Mutex
	upgrader websocket.Upgrader
	commands chan viewer.Command
	last     []byte
}

// NewWebSocketServer creates a new WebSocket server instance
func NewWebSocketServer(log *zap.Logger) *WebSocketServer {
	return &WebSocketServer{
		log:      log,
		clients:  make(map[*panelClient]bool),
		commands: make(chan viewer.Command, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the panel may be opened from any local origin
			},
		},
	}
}

// Commands returns the queue drained by the render loop.
func (s *WebSocketServer) Commands() <-chan viewer.Command {
	return s.commands
}

// HandleWebSocket handles incoming WebSocket connections
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	client := &panelClient{conn: conn}

	s.sendMu.Lock()
	s.mu.Lock()
	s.clients[client] = true
	last := s.last
	count := len(s.clients)
	s.mu.Unlock()

	if last != nil {
		err = client.write(last)
	}
	s.sendMu.Unlock()
	if err != nil {
		s.drop(client)
		return
	}

	s.log.Info("panel connected", zap.String("remote", r.RemoteAddr), zap.Int("clients", count))
	go s.readLoop(client)
}

func (s *WebSocketServer) readLoop(client *panelClient) {
	defer s.drop(client)

	for {
		messageType, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var cmd viewer.Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			s.log.Warn("bad panel command", zap.Error(err))
			continue
		}
		select {
		case s.commands <- cmd:
		default:
			s.log.Warn("panel command queue full, dropping", zap.String("op", cmd.Op))
		}
	}
}

func (s *WebSocketServer) drop(client *panelClient) {
	s.mu.Lock()
	_, ok := s.clients[client]
	delete(s.clients, client)
	count := len(s.clients)
	s.mu.Unlock()
	if ok {
		client.conn.Close()
		s.log.Info("panel disconnected", zap.Int("clients", count))
	}
}

// BroadcastSnapshot sends snap to every connected panel and keeps it for
// panels that connect later.
func (s *WebSocketServer) BroadcastSnapshot(snap viewer.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("encode snapshot", zap.Error(err))
		return
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.last = msg
	clients := make([]*panelClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.Unlock()

	for _, client := range clients {
		if err := client.write(msg); err != nil {
			s.log.Warn("send snapshot", zap.Error(err))
			s.drop(client)
		}
	}
}

// ClientCount returns the number of connected clients
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HTTPServer wraps the HTTP server with static file serving and WebSocket
type HTTPServer struct {
	log       *zap.Logger
	wsServer  *WebSocketServer
	server    *http.Server
	staticDir string
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(addr string, staticDir string, log *zap.Logger) *HTTPServer {
	wsServer := NewWebSocketServer(log)

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	return &HTTPServer{
		log:       log,
		wsServer:  wsServer,
		server:    server,
		staticDir: staticDir,
	}
}

// Start binds the listener and serves in a goroutine. It returns once the
// address is bound, so a nil error means the panel backend is up.
func (h *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return err
	}
	h.log.Info("panel server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("static", h.staticDir))

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error("http server", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}

// Commands returns panel commands in arrival order.
func (h *HTTPServer) Commands() <-chan viewer.Command {
	return h.wsServer.Commands()
}

// BroadcastSnapshot forwards a panel snapshot to all WebSocket clients
func (h *HTTPServer) BroadcastSnapshot(snap viewer.Snapshot) {
	h.wsServer.BroadcastSnapshot(snap)
}

// WebSocketClientCount returns the number of connected WebSocket clients
func (h *HTTPServer) WebSocketClientCount() int {
	return h.wsServer.ClientCount()
}
