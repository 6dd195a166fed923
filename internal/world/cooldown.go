package world

import "time"

type cooldownKey struct {
	sessionID string
	skillID   string
}

// CooldownTable stores readyAt per (session, skill). Entries are evaluated
// lazily against the clock at use time; nothing expires on its own.
type CooldownTable struct {
	ready map[cooldownKey]time.Time
}

func NewCooldownTable() *CooldownTable {
	return &CooldownTable{ready: make(map[cooldownKey]time.Time)}
}

// ReadyAt returns when skillID becomes usable for the session. The zero
// time means it has never been used.
func (c *CooldownTable) ReadyAt(sessionID, skillID string) time.Time {
	return c.ready[cooldownKey{sessionID, skillID}]
}

// Stamp unconditionally overwrites the record.
func (c *CooldownTable) Stamp(sessionID, skillID string, readyAt time.Time) {
	c.ready[cooldownKey{sessionID, skillID}] = readyAt
}

// ClearSession drops every record owned by the session.
func (c *CooldownTable) ClearSession(sessionID string) {
	for k := range c.ready {
		if k.sessionID == sessionID {
			delete(c.ready, k)
		}
	}
}

func (c *CooldownTable) Len() int { return len(c.ready) }
