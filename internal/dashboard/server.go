// Package dashboard streams store activity to WebSocket clients.
//
// A Server fans each Message out to every connected client through a
// per-client queue, so one slow browser tab cannot hold up the rest; a client
// whose queue fills is disconnected. A Handler turns sync.Store events into
// messages and doubles as the store's Collection.
//
// Endpoints:
//
//	/ws       message stream; a stats snapshot is sent on connect
//	/records  JSON array of the tracked records
//	/stats    JSON StatsData
//	/health   liveness and client count
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"

	"github.com/johnfriz/AppForms-Template/internal/record"
)

// Source supplies the snapshot endpoints and the connect-time stats.
// *Handler implements it.
type Source interface {
	Records() []record.Record
	GetStats() StatsData
}

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8080, 0 picks a free port)
	Port int

	// ClientQueue is how many messages may wait for one client before it is
	// dropped (default: 64)
	ClientQueue int

	// WriteTimeout bounds a single websocket write (default: 5s)
	WriteTimeout time.Duration

	// Logger for server activity (default: log.Default())
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		ClientQueue:  64,
		WriteTimeout: 5 * time.Second,
		Logger:       log.Default(),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server accepts websocket clients and broadcasts Messages to them.
type Server struct {
	config   Config
	addr     string
	listener net.Listener
	server   *http.Server
	started  time.Time

	clientsMu sync.Mutex
	clients   map[*client]struct{}
	closed    bool

	broadcast chan Message

	sourceMu sync.RWMutex
	source   Source

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a server. It does not listen until Start.
func NewServer(config *Config) *Server {
	cfg := *DefaultConfig()
	if config != nil {
		cfg.Port = config.Port
		if config.ClientQueue > 0 {
			cfg.ClientQueue = config.ClientQueue
		}
		if config.WriteTimeout > 0 {
			cfg.WriteTimeout = config.WriteTimeout
		}
		if config.Logger != nil {
			cfg.Logger = config.Logger
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:    cfg,
		addr:      fmt.Sprintf(":%d", cfg.Port),
		clients:   make(map[*client]struct{}),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    cfg.Logger,
	}
}

// SetSource sets what /records, /stats and the connect-time snapshot read.
func (s *Server) SetSource(src Source) {
	s.sourceMu.Lock()
	defer s.sourceMu.Unlock()
	s.source = src
}

func (s *Server) getSource() Source {
	s.sourceMu.RLock()
	defer s.sourceMu.RUnlock()
	return s.source
}

// Start listens and begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.started = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/records", s.handleRecords)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(2)
	go s.fanOut()
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("Server error: %v", err)
		}
	}()
	return nil
}

// Stop disconnects every client and shuts the server down.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	s.closed = true
	s.clientsMu.Unlock()

	var shutdownErr error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	// Client loops exit on s.ctx and deregister themselves.
	s.wg.Wait()
	s.logger.Println("Dashboard stopped")
	return shutdownErr
}

// Broadcast queues msg for every connected client. It never blocks; when
// the queue is full the message is dropped.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Println("Warning: broadcast queue full, dropping message")
	}
}

func (s *Server) fanOut() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal %s message: %v", msg.Type, err)
				continue
			}

			s.clientsMu.Lock()
			for c := range s.clients {
				select {
				case c.send <- payload:
				default:
					// Too slow; its write loop sees the closed queue and hangs up.
					delete(s.clients, c)
					close(c.send)
					s.logger.Printf("Dropping slow client (total: %d)", len(s.clients))
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, s.config.ClientQueue)}
	if welcome, ok := s.snapshot(); ok {
		c.send <- welcome
	}

	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	s.clients[c] = struct{}{}
	total := len(s.clients)
	s.wg.Add(1)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", total)

	// Clients only listen; CloseRead discards input and reports hang-ups.
	ctx := conn.CloseRead(s.ctx)
	go s.writeLoop(ctx, c)
}

// snapshot encodes the stats message sent to a new client.
func (s *Server) snapshot() ([]byte, bool) {
	var stats StatsData
	if src := s.getSource(); src != nil {
		stats = src.GetStats()
	}
	msg, err := NewMessage(MessageTypeStats, stats)
	if err != nil {
		return nil, false
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	defer s.wg.Done()
	defer s.removeClient(c)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Printf("Failed to send to client: %v", err)
				}
				return
			}
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	_, present := s.clients[c]
	if present {
		delete(s.clients, c)
		close(c.send)
	}
	total := len(s.clients)
	s.clientsMu.Unlock()

	status, reason := websocket.StatusNormalClosure, ""
	if s.ctx.Err() != nil {
		status, reason = websocket.StatusGoingAway, "server shutting down"
	}
	_ = c.conn.Close(status, reason)
	if present {
		s.logger.Printf("Client disconnected (total: %d)", total)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records := []record.Record{}
	if src := s.getSource(); src != nil {
		if got := src.Records(); got != nil {
			records = got
		}
	}
	writeJSON(w, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var stats StatsData
	if src := s.getSource(); src != nil {
		stats = src.GetStats()
	}
	writeJSON(w, stats)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>formsync dashboard</title></head>
<body>
  <h1>formsync dashboard</h1>
  <ul>
    <li>Stream: <code>ws://%s/ws</code></li>
    <li><a href="/records">/records</a></li>
    <li><a href="/stats">/stats</a></li>
    <li><a href="/health">/health</a></li>
  </ul>
</body>
</html>`, r.Host)
}

// GetAddr returns the listening address, or the configured one before Start.
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
