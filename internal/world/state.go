package world

// State bundles every piece of shared mutable session state. All four
// tables are mutated together (join, move, leave), so they share one owner:
// the game loop goroutine.
type State struct {
	Sessions  *SessionStore
	Rooms     *Partitioner
	Cooldowns *CooldownTable
	Attempts  *AttemptTable
}

func NewState(cellSize float64) *State {
	return &State{
		Sessions:  NewSessionStore(),
		Rooms:     NewPartitioner(cellSize),
		Cooldowns: NewCooldownTable(),
		Attempts:  NewAttemptTable(),
	}
}

// MembersOf returns the session ids in room.
func (s *State) MembersOf(room RoomID) []string {
	return s.Rooms.MembersOf(room)
}

// SinkFor returns the transport of a joined session, or nil.
func (s *State) SinkFor(sessionID string) Sink {
	p := s.Sessions.Get(sessionID)
	if p == nil || p.Sink == nil {
		return nil
	}
	return p.Sink
}

// SessionIDs returns every joined session id, sorted.
func (s *State) SessionIDs() []string {
	all := s.Sessions.All()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.ID
	}
	return out
}

// Summary is the public view of one member, used in joins and tick sync.
type Summary struct {
	ID          string `json:"id"`
	CharacterID string `json:"characterId"`
	Position    Vec3   `json:"position"`
	Rotation    Vec3   `json:"rotation"`
}

func (p *PlayerSession) Summary() Summary {
	return Summary{ID: p.ID, CharacterID: p.CharacterID, Position: p.Position, Rotation: p.Rotation}
}

// RoomSummaries lists the members of room in id order.
func (s *State) RoomSummaries(room RoomID) []Summary {
	ids := s.Rooms.MembersOf(room)
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if p := s.Sessions.Get(id); p != nil {
			out = append(out, p.Summary())
		}
	}
	return out
}
