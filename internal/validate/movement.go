package validate

import (
	"fmt"
	"time"

	"github.com/l1jgo/realmsync/internal/world"
)

// MoveDecision is an accepted movement.
type MoveDecision struct {
	Position world.Vec3
	Rotation world.Vec3
	Distance float64
}

// Position rejects coordinates that are not finite or fall outside the
// configured world bounds.
func (v *Validator) Position(pos, rot world.Vec3) error {
	if !pos.Finite() || !rot.Finite() {
		return fmt.Errorf("%w: non-finite coordinates", ErrInvalidMovement)
	}
	if v.maxCoord > 0 && !pos.Within(v.maxCoord) {
		return fmt.Errorf("%w: position outside world bounds", ErrInvalidMovement)
	}
	return nil
}

// Move accepts the destination if the implied speed since the last accepted
// position stays under the configured cap.
func (v *Validator) Move(p *world.PlayerSession, pos, rot world.Vec3, now time.Time) (MoveDecision, error) {
	if err := v.Position(pos, rot); err != nil {
		return MoveDecision{}, err
	}

	dt := now.Sub(p.LastMoveAt)
	if dt < 0 {
		dt = 0
	}
	dist := world.Distance(p.Position, pos)
	allowed := v.maxSpeed*dt.Seconds() + v.slack
	if dist > allowed {
		return MoveDecision{}, fmt.Errorf("%w: %.1f units in %s exceeds %.1f", ErrInvalidMovement, dist, dt, allowed)
	}
	return MoveDecision{Position: pos, Rotation: rot, Distance: dist}, nil
}
