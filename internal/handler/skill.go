package handler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/validate"
)

// HandleUseSkill processes use_skill. Rejections go to the caller only.
func HandleUseSkill(c Client, env *message.Envelope, deps *Deps) {
	p := joinedPlayer(c, deps)
	if p == nil {
		return
	}
	var req message.UseSkill
	if err := env.Bind(&req); err != nil {
		malformed(c, env, deps, err)
		return
	}

	now := deps.Clock.Now()
	d, err := deps.Validator.Skill(p, deps.State.Cooldowns, req.SkillID, now)
	if err != nil {
		deps.Log.Debug("skill rejected",
			zap.String("session", p.ID),
			zap.String("skill", req.SkillID),
			zap.Error(err),
		)
		res := message.SkillResult{
			Type:    message.TypeSkillResult,
			SkillID: req.SkillID,
			Error:   validate.Code(err),
			Energy:  p.Energy,
		}
		if errors.Is(err, validate.ErrSkillOnCooldown) {
			res.ReadyAt = deps.State.Cooldowns.ReadyAt(p.ID, req.SkillID).UnixMilli()
		}
		deps.Broadcast.SendTo(p.ID, res)
		return
	}

	deps.State.Cooldowns.Stamp(p.ID, req.SkillID, d.ReadyAt)
	p.Energy -= d.Cost
	p.LastActionAt = now

	deps.Broadcast.SendTo(p.ID, message.SkillResult{
		Type:    message.TypeSkillResult,
		SkillID: req.SkillID,
		Success: true,
		Energy:  p.Energy,
		ReadyAt: d.ReadyAt.UnixMilli(),
	})
	deps.Broadcast.Broadcast(p.RoomID, message.SkillUsed{
		Type:      message.TypeSkillUsed,
		SessionID: p.ID,
		SkillID:   req.SkillID,
		Target:    req.Target,
	}, "")

	event.Emit(deps.Bus, event.SkillUsed{
		SessionID: p.ID,
		SkillID:   req.SkillID,
		RoomID:    string(p.RoomID),
	})
}
