package handler

import (
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/broadcast"
	"github.com/l1jgo/realmsync/internal/config"
	"github.com/l1jgo/realmsync/internal/core/clock"
	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/data"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/validate"
	"github.com/l1jgo/realmsync/internal/world"
)

// Client is the view of one transport connection the handlers need.
// *net.Session implements it.
type Client interface {
	world.Sink
	ConnID() uint64
	AccountName() string
	State() message.SessionState
	SetState(message.SessionState)
	IsClosed() bool
}

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	State     *world.State
	World     world.World
	Validator *validate.Validator
	Skills    *data.SkillTable
	Broadcast *broadcast.Broadcaster
	Bus       *event.Bus
	Clock     clock.Clock
}

// RegisterAll registers all message handlers into the registry.
func RegisterAll(reg *message.Registry, deps *Deps) {
	reg.Register(message.TypeJoinGame,
		[]message.SessionState{message.StateAuthenticated},
		func(sess any, env *message.Envelope) {
			HandleJoin(sess.(Client), env, deps)
		},
	)

	joined := []message.SessionState{message.StateJoined}

	reg.Register(message.TypePlayerMove, joined,
		func(sess any, env *message.Envelope) {
			HandleMove(sess.(Client), env, deps)
		},
	)
	reg.Register(message.TypeUseSkill, joined,
		func(sess any, env *message.Envelope) {
			HandleUseSkill(sess.(Client), env, deps)
		},
	)
	reg.Register(message.TypePuzzleInteract, joined,
		func(sess any, env *message.Envelope) {
			HandlePuzzleInteract(sess.(Client), env, deps)
		},
	)
	reg.Register(message.TypeObjectInteract, joined,
		func(sess any, env *message.Envelope) {
			HandleObjectInteract(sess.(Client), env, deps)
		},
	)
	reg.Register(message.TypeLeaveGame, joined,
		func(sess any, env *message.Envelope) {
			HandleLeave(sess.(Client), deps)
		},
	)
}

// joinedPlayer returns the live session joined over c, or nil once
// disconnect cleanup has started.
func joinedPlayer(c Client, deps *Deps) *world.PlayerSession {
	p := deps.State.Sessions.ByConn(c.ConnID())
	if p == nil || p.Disconnected {
		return nil
	}
	return p
}

func malformed(c Client, env *message.Envelope, deps *Deps, err error) {
	deps.Log.Warn("malformed message dropped",
		zap.Uint64("conn", c.ConnID()),
		zap.String("type", env.Type),
		zap.Error(err),
	)
}

// SendError answers c with an error envelope.
func SendError(c Client, deps *Deps, code string) {
	deps.Broadcast.SendSink(c, message.Error{Type: message.TypeError, Error: code})
}

// othersIn lists the members of room except sessionID.
func othersIn(deps *Deps, room world.RoomID, sessionID string) []world.Summary {
	all := deps.State.RoomSummaries(room)
	out := all[:0]
	for _, s := range all {
		if s.ID != sessionID {
			out = append(out, s)
		}
	}
	return out
}
