package handler

import (
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/validate"
	"github.com/l1jgo/realmsync/internal/world"
)

// HandleObjectInteract forwards object_interact to the World collaborator
// and broadcasts the resulting object state to the room.
func HandleObjectInteract(c Client, env *message.Envelope, deps *Deps) {
	p := joinedPlayer(c, deps)
	if p == nil {
		return
	}
	var req message.ObjectInteract
	if err := env.Bind(&req); err != nil {
		malformed(c, env, deps, err)
		return
	}
	if req.ObjectID == "" {
		malformed(c, env, deps, message.ErrMalformedMessage)
		return
	}

	obj, err := deps.World.Interact(world.Interaction{
		SessionID:   p.ID,
		CharacterID: p.CharacterID,
		ObjectID:    req.ObjectID,
		Interaction: req.Interaction,
		Position:    p.Position,
	})
	if err != nil {
		deps.Log.Debug("object interaction rejected",
			zap.String("session", p.ID),
			zap.String("object", req.ObjectID),
			zap.Error(err),
		)
		deps.Broadcast.SendTo(p.ID, message.ObjectResult{
			Type:     message.TypeObjectResult,
			ObjectID: req.ObjectID,
			Error:    validate.Code(err),
		})
		return
	}
	p.LastActionAt = deps.Clock.Now()

	deps.Broadcast.SendTo(p.ID, message.ObjectResult{
		Type:     message.TypeObjectResult,
		ObjectID: req.ObjectID,
		Success:  true,
	})
	deps.Broadcast.Broadcast(p.RoomID, message.ObjectInteraction{
		Type:        message.TypeObjectInteraction,
		SessionID:   p.ID,
		ObjectID:    req.ObjectID,
		Interaction: req.Interaction,
		Object:      obj,
	}, "")

	event.Emit(deps.Bus, event.ObjectInteracted{
		SessionID:   p.ID,
		ObjectID:    req.ObjectID,
		Interaction: req.Interaction,
		RoomID:      string(p.RoomID),
	})
}
