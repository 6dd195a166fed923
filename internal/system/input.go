package system

import (
	"errors"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/realmsync/internal/core/system"
	"github.com/l1jgo/realmsync/internal/handler"
	"github.com/l1jgo/realmsync/internal/net"
	"github.com/l1jgo/realmsync/internal/net/message"
)

// Conn is a transport connection as seen by the game loop.
type Conn interface {
	handler.Client
	Inbound() <-chan []byte
}

// AcceptFunc returns the next newly authenticated connection without
// blocking, or false when none is waiting.
type AcceptFunc func() (Conn, bool)

// FromServer adapts the gateway's session channel to an AcceptFunc.
func FromServer(srv *net.Server) AcceptFunc {
	ch := srv.NewSessions()
	return func() (Conn, bool) {
		select {
		case sess := <-ch:
			return sess, true
		default:
			return nil, false
		}
	}
}

// Connections tracks every live connection owned by the game loop.
type Connections struct {
	conns map[uint64]Conn
	deps  *handler.Deps
}

func NewConnections(deps *handler.Deps) *Connections {
	return &Connections{conns: make(map[uint64]Conn), deps: deps}
}

func (cs *Connections) Add(c Conn) { cs.conns[c.ConnID()] = c }

func (cs *Connections) Count() int { return len(cs.conns) }

// Reap runs disconnect cleanup for every closed connection and forgets it.
func (cs *Connections) Reap() int {
	n := 0
	for id, c := range cs.conns {
		if !c.IsClosed() {
			continue
		}
		handler.Disconnect(c, cs.deps)
		delete(cs.conns, id)
		cs.deps.Log.Info("connection closed", zap.Uint64("conn", id))
		n++
	}
	return n
}

// CloseAll closes every connection and cleans up after it. Used at shutdown.
func (cs *Connections) CloseAll() {
	for _, c := range cs.conns {
		c.Close()
	}
	cs.Reap()
}

// InputSystem accepts new connections and drains inbound queues through the
// message registry. Phase 0 (Input).
type InputSystem struct {
	accept     AcceptFunc
	conns      *Connections
	registry   *message.Registry
	maxPerTick int
	deps       *handler.Deps
}

func NewInputSystem(accept AcceptFunc, conns *Connections, registry *message.Registry, maxPerTick int, deps *handler.Deps) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 1
	}
	return &InputSystem{
		accept:     accept,
		conns:      conns,
		registry:   registry,
		maxPerTick: maxPerTick,
		deps:       deps,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ coresys.Tick) {
	for {
		c, ok := s.accept()
		if !ok {
			break
		}
		s.conns.Add(c)
	}

	s.conns.Reap()

	// Per connection, frames are dispatched in arrival order.
	for _, c := range s.conns.conns {
		s.drain(c)
	}
}

func (s *InputSystem) drain(c Conn) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-c.Inbound():
			s.dispatch(c, data)
		default:
			return
		}
	}
}

func (s *InputSystem) dispatch(c Conn, data []byte) {
	err := s.registry.Dispatch(c, c.State(), data)
	switch {
	case err == nil:
	case errors.Is(err, message.ErrMalformedMessage):
		s.deps.Log.Warn("malformed message dropped", zap.Uint64("conn", c.ConnID()), zap.Error(err))
	case errors.Is(err, message.ErrNotAllowed):
		s.deps.Log.Debug("message not allowed", zap.Uint64("conn", c.ConnID()), zap.Error(err))
		handler.SendError(c, s.deps, "not_allowed")
	default:
		s.deps.Log.Debug("dispatch error", zap.Uint64("conn", c.ConnID()), zap.Error(err))
	}
}

// CleanupSystem reaps connections closed during this tick, such as those
// dropped by the broadcaster after repeated send failures. Phase 4 (Cleanup).
type CleanupSystem struct {
	conns *Connections
}

func NewCleanupSystem(conns *Connections) *CleanupSystem {
	return &CleanupSystem{conns: conns}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ coresys.Tick) {
	s.conns.Reap()
}
