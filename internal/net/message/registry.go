package message

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SessionState is the connection's position in the gateway state machine.
type SessionState int

const (
	StateConnecting    SessionState = iota // awaiting credentials
	StateAuthenticated                     // credentials accepted, not yet in world
	StateJoined                            // has a PlayerSession and a room
	StateDisconnected                      // terminal
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateAuthenticated:
		return "Authenticated"
	case StateJoined:
		return "Joined"
	case StateDisconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ErrNotAllowed is returned when a message type is not accepted in the
// session's current state.
var ErrNotAllowed = errors.New("message not allowed in state")

// HandlerFunc is the callback signature for message handlers.
// The session is passed as an opaque value to avoid import cycles.
type HandlerFunc func(sess any, env *Envelope)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps message types to handlers with state-based access control.
type Registry struct {
	handlers map[string]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]*handlerEntry),
		log:      log,
	}
}

// Register maps a message type to a handler, restricted to the given states.
func (reg *Registry) Register(msgType string, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[msgType] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Handles reports whether msgType has a handler.
func (reg *Registry) Handles(msgType string) bool {
	_, ok := reg.handlers[msgType]
	return ok
}

// Dispatch decodes one frame, checks the session state and runs the handler.
// Malformed frames return ErrMalformedMessage; unknown types are dropped.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	env, err := Decode(data)
	if err != nil {
		return err
	}
	reg.log.Debug("message received",
		zap.String("type", env.Type),
		zap.Int("size", len(data)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[env.Type]
	if !ok {
		reg.log.Debug("unknown message type", zap.String("type", env.Type))
		return nil
	}

	if !entry.allowedStates[state] {
		return fmt.Errorf("%w: %s in %s", ErrNotAllowed, env.Type, state)
	}

	return reg.safeCall(entry.fn, sess, env)
}

// safeCall executes a handler with panic recovery so one bad message cannot
// take down the game loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, env *Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("type", env.Type),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", env.Type, rec)
		}
	}()
	fn(sess, env)
	return nil
}
