package world

import (
	"errors"
	"time"
)

var (
	// ErrUnknownObject is returned by World.Interact for an object id it does not know.
	ErrUnknownObject = errors.New("unknown object")
	// ErrInteractionRejected is returned when the object refuses the interaction.
	ErrInteractionRejected = errors.New("interaction rejected")
)

// World is the external collaborator that owns time of day, weather and
// interactive objects. The sync core only reads snapshots and forwards
// object interactions; it never interprets them.
type World interface {
	// Advance moves world time forward by dt.
	Advance(dt time.Duration)
	// Snapshot returns the current passive world state.
	Snapshot() Snapshot
	// Interact applies one object interaction. A non-nil error rejects it.
	Interact(req Interaction) (ObjectState, error)
}

// Snapshot is produced per tick and sent to clients verbatim.
type Snapshot struct {
	TimeOfDay float64       `json:"timeOfDay"` // hours, [0,24)
	Weather   string        `json:"weather"`
	Objects   []ObjectState `json:"objects"`
}

type ObjectState struct {
	ID    string         `json:"id"`
	State map[string]any `json:"state,omitempty"`
}

type Interaction struct {
	SessionID   string
	CharacterID string
	ObjectID    string
	Interaction string
	Position    Vec3
}
