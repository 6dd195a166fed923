package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/net/message"
)

// ErrInvalidCredentials is returned by an Authenticator that rejects the
// supplied account/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks the handshake credentials and returns the canonical
// account name.
type Authenticator interface {
	Authenticate(ctx context.Context, account, password, ip string) (string, error)
}

// Stats is the load summary published by the game loop for /healthz.
type Stats struct {
	Sessions atomic.Int64
	Rooms    atomic.Int64
	Tick     atomic.Uint64
}

// ServerOptions configures the gateway.
type ServerOptions struct {
	Path             string
	HandshakeTimeout time.Duration
	Session          SessionOptions
}

// Server upgrades HTTP requests to WebSocket connections, authenticates
// them and hands accepted Sessions to the game loop through a channel.
type Server struct {
	opts     ServerOptions
	auth     Authenticator
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	stats    *Stats
	mux      *http.ServeMux
	log      *zap.Logger

	httpSrv  *http.Server
	listener net.Listener
	closing  atomic.Bool
}

func NewServer(opts ServerOptions, auth Authenticator, stats *Stats, log *zap.Logger) *Server {
	if opts.Path == "" {
		opts.Path = "/ws"
	}
	if stats == nil {
		stats = &Stats{}
	}
	s := &Server{
		opts: opts,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: opts.HandshakeTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		stats:    stats,
		mux:      http.NewServeMux(),
		log:      log,
	}
	s.mux.HandleFunc(opts.Path, s.handleWS)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// ServeHTTP lets the server be mounted on any listener, including httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Listen binds the address and serves in a background goroutine.
func (s *Server) Listen(bindAddr string) error {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", bindAddr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listener's address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// NewSessions returns the channel of authenticated sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops accepting connections. Hijacked WebSocket connections are
// not tracked by http.Server; the game loop closes those itself.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Status   string `json:"status"`
		Sessions int64  `json:"sessions"`
		Rooms    int64  `json:"rooms"`
		Tick     uint64 `json:"tick"`
	}{
		Status:   "ok",
		Sessions: s.stats.Sessions.Load(),
		Rooms:    s.stats.Rooms.Load(),
		Tick:     s.stats.Tick.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.closing.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.opts.Session, s.log)
	sess.log.Info("connection opened", zap.String("ip", sess.IP))

	if err := s.handshake(r.Context(), sess); err != nil {
		sess.log.Info("handshake failed", zap.Error(err))
		sess.Close()
		return
	}

	select {
	case s.newConns <- sess:
	default:
		sess.log.Warn("session queue full, rejecting connection")
		sess.Close()
		return
	}

	// The request goroutine becomes the reader.
	sess.start()
}

// handshake reads the authenticate frame and answers auth_result. It runs
// before the session reaches the game loop, so a failure leaves no state
// behind.
func (s *Server) handshake(ctx context.Context, sess *Session) error {
	if s.opts.HandshakeTimeout > 0 {
		deadline := time.Now().Add(s.opts.HandshakeTimeout)
		sess.conn.SetReadDeadline(deadline)
		sess.conn.SetWriteDeadline(deadline)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	_, data, err := sess.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read authenticate: %w", err)
	}
	env, err := message.Decode(data)
	if err != nil {
		s.reply(sess, message.AuthResult{Type: message.TypeAuthResult, Error: "malformed_message"})
		return err
	}
	if env.Type != message.TypeAuthenticate {
		s.reply(sess, message.AuthResult{Type: message.TypeAuthResult, Error: "authentication_required"})
		return fmt.Errorf("first message %q is not %s", env.Type, message.TypeAuthenticate)
	}
	var req message.Authenticate
	if err := env.Bind(&req); err != nil {
		s.reply(sess, message.AuthResult{Type: message.TypeAuthResult, Error: "malformed_message"})
		return err
	}

	account, err := s.auth.Authenticate(ctx, req.Account, req.Password, sess.IP)
	if err != nil {
		code := "authentication_failed"
		if errors.Is(err, ErrInvalidCredentials) {
			code = "invalid_credentials"
		}
		s.reply(sess, message.AuthResult{Type: message.TypeAuthResult, Error: code})
		return fmt.Errorf("authenticate %q: %w", req.Account, err)
	}

	if err := s.reply(sess, message.AuthResult{Type: message.TypeAuthResult, Success: true}); err != nil {
		return err
	}
	sess.Account = account
	sess.log = sess.log.With(zap.String("account", account))
	sess.SetState(message.StateAuthenticated)
	sess.conn.SetWriteDeadline(time.Time{})
	sess.log.Info("authenticated")
	return nil
}

// reply writes directly to the socket. Only valid before the writer starts.
func (s *Server) reply(sess *Session, msg any) error {
	data, err := message.Encode(msg)
	if err != nil {
		return err
	}
	return sess.conn.WriteMessage(websocket.TextMessage, data)
}
