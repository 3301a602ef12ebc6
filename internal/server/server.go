// Package server exposes blackjack sessions over HTTP: a WebSocket table
// protocol for play plus read-only JSON endpoints for profiles and history.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Server is the table server. Each WebSocket connection plays through the
// shared session manager; the manager keeps rounds alive across reconnects.
type Server struct {
	addr       string
	httpServer *http.Server
	upgrader   websocket.Upgrader
	sessions   *session.Manager
	validator  auth.Validator
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[*Connection]struct{}
}

// NewServer creates a table server and starts the session sweeper. The
// sweeper stops on Shutdown.
func NewServer(addr string, sessions *session.Manager, validator auth.Validator, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions:  sessions,
		validator: validator,
		logger:    logger.WithPrefix("server"),
		ctx:       ctx,
		cancel:    cancel,
		conns:     make(map[*Connection]struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sessions.Run(ctx)
	return s
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(s.requestLogger)
		r.Use(s.authenticate)
		r.Get("/profile", s.handleProfile)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting table server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes every connection and waits for
// in-flight HTTP requests up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	open := make([]*Connection, 0, len(s.conns))
	for conn := range s.conns {
		open = append(open, conn)
	}
	s.mu.Unlock()

	for _, conn := range open {
		_ = conn.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// handleWebSocket upgrades the request and tracks the connection until its
// pumps exit.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	if s.ctx.Err() != nil {
		_ = ws.Close()
		return
	}

	conn := NewConnection(s.ctx, ws, s.logger, s.sessions, s.validator)
	total := s.track(conn)
	s.logger.Info("Client connected", "remote", r.RemoteAddr, "total", total)
	conn.Start()

	go func() {
		<-conn.ctx.Done()
		_ = conn.Close()
		total := s.untrack(conn)
		// The session outlives the socket so a reconnecting player can
		// resume; the idle sweep reclaims it otherwise.
		s.logger.Info("Client disconnected", "user", conn.UserID(), "total", total)
	}()
}

func (s *Server) track(conn *Connection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
	return len(s.conns)
}

func (s *Server) untrack(conn *Connection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
	return len(s.conns)
}

// ConnectionCount returns the number of open WebSocket connections
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
