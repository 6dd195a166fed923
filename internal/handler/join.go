package handler

import (
	"sort"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/validate"
	"github.com/l1jgo/realmsync/internal/world"
)

// HandleJoin processes join_game: creates the PlayerSession, assigns its
// first room, answers game_joined and announces the arrival to the room.
func HandleJoin(c Client, env *message.Envelope, deps *Deps) {
	var req message.JoinGame
	if err := env.Bind(&req); err != nil {
		malformed(c, env, deps, err)
		return
	}
	if req.CharacterID == "" {
		SendError(c, deps, "missing_character_id")
		return
	}
	if deps.State.Sessions.ByConn(c.ConnID()) != nil {
		return
	}

	var pos, rot world.Vec3
	if req.Position != nil {
		pos = *req.Position
	}
	if req.Rotation != nil {
		rot = *req.Rotation
	}
	if err := deps.Validator.Position(pos, rot); err != nil {
		SendError(c, deps, validate.Code(err))
		return
	}

	now := deps.Clock.Now()
	p := &world.PlayerSession{
		ID:           world.NewSessionID(),
		ConnID:       c.ConnID(),
		Account:      c.AccountName(),
		CharacterID:  req.CharacterID,
		Position:     pos,
		Rotation:     rot,
		JoinedAt:     now,
		LastActionAt: now,
		LastMoveAt:   now,
		Energy:       deps.Config.World.MaxEnergy,
		MaxEnergy:    deps.Config.World.MaxEnergy,
		Skills:       deps.Skills.StarterSet(),
		Sink:         c,
	}
	p.RoomID = deps.State.Rooms.RoomIDFor(pos)

	// First assignment has no previous room.
	deps.State.Sessions.Put(p)
	deps.State.Rooms.Assign(p.ID, p.RoomID)
	c.SetState(message.StateJoined)

	skills := make([]string, 0, len(p.Skills))
	for id := range p.Skills {
		skills = append(skills, id)
	}
	sort.Strings(skills)

	deps.Broadcast.SendTo(p.ID, message.GameJoined{
		Type:      message.TypeGameJoined,
		SessionID: p.ID,
		RoomID:    p.RoomID,
		Self:      p.Summary(),
		Members:   othersIn(deps, p.RoomID, p.ID),
		Energy:    p.Energy,
		Skills:    skills,
		World:     deps.World.Snapshot(),
	})
	deps.Broadcast.Broadcast(p.RoomID, message.PlayerJoined{
		Type:   message.TypePlayerJoined,
		Player: p.Summary(),
		RoomID: p.RoomID,
	}, p.ID)

	event.Emit(deps.Bus, event.PlayerJoined{
		SessionID:   p.ID,
		CharacterID: p.CharacterID,
		Account:     p.Account,
		RoomID:      string(p.RoomID),
	})

	deps.Log.Info("player joined",
		zap.String("session", p.ID),
		zap.String("character", p.CharacterID),
		zap.String("room", string(p.RoomID)),
	)
}
