package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: accept sessions, drain inbound queues
	PhasePreUpdate               // 1: dispatch last tick's domain events
	PhaseUpdate                  // 2: world clock, weather, energy regen
	PhaseSync                    // 3: per-room state broadcast
	PhaseCleanup                 // 4: drop dead sessions
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseSync:
		return "sync"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Tick describes one scheduler step.
type Tick struct {
	Seq uint64        // 1-based tick counter
	Now time.Time     // clock reading at tick start
	DT  time.Duration // time since the previous executed tick
}

// System is the interface every per-tick system implements.
type System interface {
	Phase() Phase
	Update(t Tick)
}
