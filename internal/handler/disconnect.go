package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/net/message"
)

// Disconnect removes every trace of the session joined over c: room
// membership, the store record, cooldowns and puzzle participation. Then
// everyone still online is told. Calling it again is a no-op.
func Disconnect(c Client, deps *Deps) {
	p := deps.State.Sessions.ByConn(c.ConnID())
	if p == nil || p.Disconnected {
		return
	}
	p.Disconnected = true
	room := p.RoomID

	deps.State.Rooms.Unassign(p.ID, room)
	deps.State.Sessions.Remove(p.ID)
	deps.State.Cooldowns.ClearSession(p.ID)
	deps.State.Attempts.Leave(p.ID)
	deps.Broadcast.Forget(p.ID)

	deps.Broadcast.BroadcastGlobal(message.PlayerDisconnected{
		Type:      message.TypePlayerDisconnected,
		SessionID: p.ID,
		RoomID:    room,
	}, p.ID)

	event.Emit(deps.Bus, event.PlayerLeft{
		SessionID:   p.ID,
		CharacterID: p.CharacterID,
		RoomID:      string(room),
	})

	deps.Log.Info("player left",
		zap.String("session", p.ID),
		zap.String("room", string(room)),
		zap.Duration("online", deps.Clock.Now().Sub(p.JoinedAt).Round(time.Second)),
	)
}

// HandleLeave processes leave_game. The connection stays open and may join
// again with a fresh session.
func HandleLeave(c Client, deps *Deps) {
	Disconnect(c, deps)
	if !c.IsClosed() {
		c.SetState(message.StateAuthenticated)
	}
}
