package handler

import (
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/validate"
)

// HandleMove processes player_move. An accepted move that crosses a cell
// boundary migrates room membership before the new position is broadcast,
// so the update reaches the room the player now stands in.
func HandleMove(c Client, env *message.Envelope, deps *Deps) {
	p := joinedPlayer(c, deps)
	if p == nil {
		return
	}
	var req message.PlayerMove
	if err := env.Bind(&req); err != nil {
		malformed(c, env, deps, err)
		return
	}
	if req.Position == nil {
		malformed(c, env, deps, message.ErrMalformedMessage)
		return
	}
	rot := p.Rotation
	if req.Rotation != nil {
		rot = *req.Rotation
	}

	now := deps.Clock.Now()
	d, err := deps.Validator.Move(p, *req.Position, rot, now)
	if err != nil {
		deps.Log.Debug("move rejected", zap.String("session", p.ID), zap.Error(err))
		deps.Broadcast.SendTo(p.ID, message.MoveRejected{
			Type:     message.TypeMoveRejected,
			Error:    validate.Code(err),
			Position: p.Position,
			Rotation: p.Rotation,
		})
		return
	}

	oldRoom := p.RoomID
	newRoom := deps.State.Rooms.RoomIDFor(d.Position)
	p.Position = d.Position
	p.Rotation = d.Rotation
	p.LastMoveAt = now
	p.LastActionAt = now

	if newRoom != oldRoom {
		deps.State.Rooms.Move(p.ID, oldRoom, newRoom)
		p.RoomID = newRoom
		deps.Broadcast.SendTo(p.ID, message.RoomChanged{
			Type:    message.TypeRoomChanged,
			From:    oldRoom,
			To:      newRoom,
			Members: othersIn(deps, newRoom, p.ID),
		})
		event.Emit(deps.Bus, event.RoomChanged{
			SessionID: p.ID,
			From:      string(oldRoom),
			To:        string(newRoom),
		})
	}

	deps.Broadcast.Broadcast(newRoom, message.PlayerMoved{
		Type:      message.TypePlayerMoved,
		SessionID: p.ID,
		Position:  p.Position,
		Rotation:  p.Rotation,
		RoomID:    newRoom,
	}, p.ID)
}
