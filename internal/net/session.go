package net

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/net/message"
)

var (
	// ErrSessionClosed is returned by Send once the connection is gone.
	ErrSessionClosed = errors.New("session closed")
	// ErrSendQueueFull is returned by Send when the writer cannot keep up.
	ErrSendQueueFull = errors.New("send queue full")
)

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn *websocket.Conn

	state atomic.Int32 // message.SessionState stored as int32

	InQueue  chan []byte // game loop reads frames from here
	OutQueue chan []byte // writer goroutine reads from here

	IP      string
	Account string // canonical account name, set by the handshake

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second message limiter (readLoop goroutine only, no lock needed)
	msgPerSec  int
	msgCount   int
	msgResetAt int64

	readTimeout  time.Duration
	writeTimeout time.Duration

	log *zap.Logger
}

// SessionOptions sizes the queues and deadlines of a Session.
type SessionOptions struct {
	InQueueSize       int
	OutQueueSize      int
	MessagesPerSecond int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageBytes   int64
}

func NewSession(conn *websocket.Conn, id uint64, opts SessionOptions, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, opts.InQueueSize),
		OutQueue:     make(chan []byte, opts.OutQueueSize),
		IP:           conn.RemoteAddr().String(),
		closeCh:      make(chan struct{}),
		msgPerSec:    opts.MessagesPerSecond,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		log:          log.With(zap.Uint64("conn", id)),
	}
	if opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(opts.MaxMessageBytes)
	}
	s.state.Store(int32(message.StateConnecting))
	return s
}

func (s *Session) State() message.SessionState {
	return message.SessionState(s.state.Load())
}

func (s *Session) SetState(st message.SessionState) {
	s.state.Store(int32(st))
}

func (s *Session) ConnID() uint64 { return s.ID }

func (s *Session) AccountName() string { return s.Account }

// Inbound is the queue of decoded-later frames read from the client.
func (s *Session) Inbound() <-chan []byte { return s.InQueue }

// Log returns the connection-scoped logger.
func (s *Session) Log() *zap.Logger { return s.log }

// Send queues one encoded frame for the writer. It never blocks: a full
// queue or a closed connection is reported to the caller.
func (s *Session) Send(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.OutQueue <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts the connection down. Safe to call from any goroutine, any
// number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(message.StateDisconnected)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.closeCh }

// start launches the writer. The reader runs on the caller's goroutine.
func (s *Session) start() {
	go s.writeLoop()
	s.readLoop()
}

// readLoop reads frames from the socket and pushes them onto InQueue for the
// game loop. It returns when the connection fails or the session closes.
func (s *Session) readLoop() {
	defer s.Close()

	if s.readTimeout > 0 {
		s.extendReadDeadline()
	} else {
		s.conn.SetReadDeadline(time.Time{})
	}
	s.conn.SetPongHandler(func(string) error {
		s.extendReadDeadline()
		return nil
	})

	for {
		kind, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		s.extendReadDeadline()

		if s.msgPerSec > 0 {
			now := time.Now().Unix()
			if now != s.msgResetAt {
				s.msgCount = 0
				s.msgResetAt = now
			}
			s.msgCount++
			if s.msgCount > s.msgPerSec {
				s.log.Warn("message rate exceeded, closing", zap.Int("mps", s.msgCount))
				return
			}
		}

		// Block until InQueue has space or the session closes. Dropping
		// frames would reorder a client's moves relative to its skills.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop drains OutQueue to the socket and keeps the connection alive
// with pings.
func (s *Session) writeLoop() {
	defer s.Close()

	var pingC <-chan time.Time
	if s.readTimeout > 0 {
		ticker := time.NewTicker(s.readTimeout * 9 / 10)
		defer ticker.Stop()
		pingC = ticker.C
	}

	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOne(websocket.TextMessage, data) {
				return
			}
		case <-pingC:
			if !s.writeOne(websocket.PingMessage, nil) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(kind int, data []byte) bool {
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := s.conn.WriteMessage(kind, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}

func (s *Session) extendReadDeadline() {
	if s.readTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
}
