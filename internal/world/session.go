package world

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Sink delivers encoded messages to one client. Send must not block; a
// transport that cannot accept the message returns an error instead.
type Sink interface {
	Send(data []byte) error
	Close()
}

// PlayerSession holds in-memory data for one joined client.
// Owned by the game loop goroutine.
type PlayerSession struct {
	ID          string // generated, stable for the connection lifetime
	ConnID      uint64 // transport connection id
	Account     string
	CharacterID string
	Position    Vec3
	Rotation    Vec3
	RoomID      RoomID

	JoinedAt     time.Time
	LastActionAt time.Time // last accepted action of any kind
	LastMoveAt   time.Time // when Position was last accepted, feeds the speed bound

	Energy    int
	MaxEnergy int
	regenAcc  float64 // fractional energy carried between ticks

	Skills map[string]struct{} // unlocked skill ids

	Sink Sink

	Disconnected bool // set once cleanup has started; no further actions are processed
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// HasSkill reports whether skillID is in the session's unlocked set.
func (p *PlayerSession) HasSkill(skillID string) bool {
	_, ok := p.Skills[skillID]
	return ok
}

// Regen adds perSecond*dt energy, carrying fractions between calls, capped at MaxEnergy.
func (p *PlayerSession) Regen(perSecond int, dt time.Duration) {
	if perSecond <= 0 || p.Energy >= p.MaxEnergy {
		p.regenAcc = 0
		return
	}
	p.regenAcc += float64(perSecond) * dt.Seconds()
	whole := int(p.regenAcc)
	if whole == 0 {
		return
	}
	p.regenAcc -= float64(whole)
	p.Energy += whole
	if p.Energy >= p.MaxEnergy {
		p.Energy = p.MaxEnergy
		p.regenAcc = 0
	}
}

// SessionStore holds one record per joined player.
// Accessed only from the game loop goroutine; no mutex needed.
type SessionStore struct {
	sessions map[string]*PlayerSession
	byConn   map[uint64]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*PlayerSession),
		byConn:   make(map[uint64]string),
	}
}

func (ss *SessionStore) Put(p *PlayerSession) {
	ss.sessions[p.ID] = p
	if p.ConnID != 0 {
		ss.byConn[p.ConnID] = p.ID
	}
}

func (ss *SessionStore) Get(id string) *PlayerSession { return ss.sessions[id] }

// ByConn returns the session joined over the given transport connection.
func (ss *SessionStore) ByConn(connID uint64) *PlayerSession {
	id, ok := ss.byConn[connID]
	if !ok {
		return nil
	}
	return ss.sessions[id]
}

func (ss *SessionStore) Remove(id string) {
	p, ok := ss.sessions[id]
	if !ok {
		return
	}
	delete(ss.sessions, id)
	if p.ConnID != 0 {
		delete(ss.byConn, p.ConnID)
	}
}

func (ss *SessionStore) Count() int { return len(ss.sessions) }

// ForEach iterates all sessions. Safe to Remove during iteration.
func (ss *SessionStore) ForEach(fn func(*PlayerSession)) {
	for _, p := range ss.sessions {
		fn(p)
	}
}

// All returns the sessions ordered by id.
func (ss *SessionStore) All() []*PlayerSession {
	out := make([]*PlayerSession, 0, len(ss.sessions))
	for _, p := range ss.sessions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
