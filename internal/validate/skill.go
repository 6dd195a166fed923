package validate

import (
	"fmt"
	"time"

	"github.com/l1jgo/realmsync/internal/data"
	"github.com/l1jgo/realmsync/internal/world"
)

// SkillDecision is an accepted skill use. The caller stamps ReadyAt into the
// cooldown table and debits Cost.
type SkillDecision struct {
	Skill   *data.SkillInfo
	ReadyAt time.Time
	Cost    int
}

// Skill checks that skillID is unlocked, off cooldown and affordable.
func (v *Validator) Skill(p *world.PlayerSession, cooldowns *world.CooldownTable, skillID string, now time.Time) (SkillDecision, error) {
	skill := v.skills.Get(skillID)
	if skill == nil || !p.HasSkill(skillID) {
		return SkillDecision{}, fmt.Errorf("%w: %q", ErrUnknownSkill, skillID)
	}

	if readyAt := cooldowns.ReadyAt(p.ID, skillID); now.Before(readyAt) {
		return SkillDecision{}, fmt.Errorf("%w: %s remaining", ErrSkillOnCooldown, readyAt.Sub(now))
	}

	if p.Energy < skill.Cost {
		return SkillDecision{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientResource, skill.Cost, p.Energy)
	}

	return SkillDecision{
		Skill:   skill,
		ReadyAt: now.Add(skill.Cooldown),
		Cost:    skill.Cost,
	}, nil
}
