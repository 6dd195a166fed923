package system

import (
	"github.com/l1jgo/realmsync/internal/broadcast"
	"github.com/l1jgo/realmsync/internal/core/event"
	coresys "github.com/l1jgo/realmsync/internal/core/system"
	"github.com/l1jgo/realmsync/internal/net"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/world"
)

// EventDispatchSystem delivers the domain events emitted during the previous
// tick. Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ coresys.Tick) {
	s.bus.DispatchAll()
}

// EventSwapSystem closes the tick's event buffer so the next tick's dispatch
// sees everything emitted in this one. Register it after every other cleanup
// system. Phase 4 (Cleanup).
type EventSwapSystem struct {
	bus *event.Bus
}

func NewEventSwapSystem(bus *event.Bus) *EventSwapSystem {
	return &EventSwapSystem{bus: bus}
}

func (s *EventSwapSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *EventSwapSystem) Update(_ coresys.Tick) {
	s.bus.SwapBuffers()
}

// WorldClockSystem advances the World collaborator and regenerates energy.
// Phase 2 (Update).
type WorldClockSystem struct {
	world       world.World
	state       *world.State
	regenPerSec int
}

func NewWorldClockSystem(w world.World, st *world.State, regenPerSec int) *WorldClockSystem {
	return &WorldClockSystem{world: w, state: st, regenPerSec: regenPerSec}
}

func (s *WorldClockSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WorldClockSystem) Update(t coresys.Tick) {
	s.world.Advance(t.DT)
	s.state.Sessions.ForEach(func(p *world.PlayerSession) {
		p.Regen(s.regenPerSec, t.DT)
	})
}

// SyncSystem sends every non-empty room its member summaries and the world
// snapshot. Phase 3 (Sync).
type SyncSystem struct {
	world world.World
	state *world.State
	bc    *broadcast.Broadcaster
	stats *net.Stats
}

func NewSyncSystem(w world.World, st *world.State, bc *broadcast.Broadcaster, stats *net.Stats) *SyncSystem {
	return &SyncSystem{world: w, state: st, bc: bc, stats: stats}
}

func (s *SyncSystem) Phase() coresys.Phase { return coresys.PhaseSync }

func (s *SyncSystem) Update(t coresys.Tick) {
	snapshot := s.world.Snapshot()
	rooms := s.state.Rooms.Rooms()
	for _, room := range rooms {
		players := s.state.RoomSummaries(room)
		if len(players) == 0 {
			continue
		}
		s.bc.Broadcast(room, message.GameStateUpdate{
			Type:    message.TypeGameStateUpdate,
			Tick:    t.Seq,
			RoomID:  room,
			Players: players,
			World:   snapshot,
		}, "")
	}

	if s.stats != nil {
		s.stats.Sessions.Store(int64(s.state.Sessions.Count()))
		s.stats.Rooms.Store(int64(len(rooms)))
		s.stats.Tick.Store(t.Seq)
	}
}
