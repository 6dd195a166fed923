package world

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestSessionStore(t *testing.T) {
	ss := NewSessionStore()
	p := &PlayerSession{ID: NewSessionID(), ConnID: 7, CharacterID: "hero"}
	ss.Put(p)

	testutil.AssertEqual(t, "count", ss.Count(), 1)
	if ss.Get(p.ID) != p {
		t.Fatal("expected lookup by id")
	}
	if ss.ByConn(7) != p {
		t.Fatal("expected lookup by conn")
	}

	ss.Remove(p.ID)
	ss.Remove(p.ID)
	testutil.AssertEqual(t, "count after remove", ss.Count(), 0)
	if ss.ByConn(7) != nil {
		t.Fatal("conn index should be cleared")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestRegenCarriesFractions(t *testing.T) {
	p := &PlayerSession{Energy: 10, MaxEnergy: 12}
	// 2/s in quarter-second steps: half a point per step
	p.Regen(2, 250*time.Millisecond)
	testutil.AssertEqual(t, "before whole point", p.Energy, 10)
	p.Regen(2, 250*time.Millisecond)
	testutil.AssertEqual(t, "after whole point", p.Energy, 11)

	p.Regen(5, 10*time.Second)
	testutil.AssertEqual(t, "capped", p.Energy, 12)
}

func TestCooldownTable(t *testing.T) {
	c := NewCooldownTable()
	now := time.Unix(100, 0)
	testutil.AssertEqual(t, "unused", c.ReadyAt("a", "heal").IsZero(), true)

	c.Stamp("a", "heal", now.Add(5*time.Second))
	c.Stamp("a", "dash", now)
	c.Stamp("b", "heal", now)
	testutil.AssertEqual(t, "ready", c.ReadyAt("a", "heal"), now.Add(5*time.Second))

	c.ClearSession("a")
	testutil.AssertEqual(t, "remaining", c.Len(), 1)
	testutil.AssertEqual(t, "cleared", c.ReadyAt("a", "heal").IsZero(), true)
}

func TestAttemptTable(t *testing.T) {
	at := NewAttemptTable()
	start := time.Unix(50, 0)
	a := at.Join("gate", "s1", start)
	at.Join("gate", "s2", start.Add(time.Second))

	testutil.AssertEqual(t, "participants", a.ParticipantCount(), 2)
	testutil.AssertEqual(t, "started at first join", a.StartedAt, start)

	a.Merge(map[string]any{"lever1": true})
	a.Merge(map[string]any{"lever2": false})
	testutil.AssertEqual(t, "state keys", len(a.State), 2)

	at.Leave("s1")
	testutil.AssertEqual(t, "s1 gone", at.Involves("s1"), false)
	testutil.AssertEqual(t, "attempt kept", at.Len(), 1)

	at.Leave("s2")
	testutil.AssertEqual(t, "empty attempt discarded", at.Len(), 0)
}

func TestAttemptCandidateDoesNotStore(t *testing.T) {
	at := NewAttemptTable()
	start := time.Unix(50, 0)

	fresh := at.Candidate("gate", "s1", start)
	testutil.AssertEqual(t, "counts submitter", fresh.ParticipantCount(), 1)
	testutil.AssertEqual(t, "nothing stored", at.Len(), 0)

	a := at.Join("gate", "s1", start)
	a.Merge(map[string]any{"lever": true})
	c := at.Candidate("gate", "s2", start.Add(time.Minute))
	testutil.AssertEqual(t, "both counted", c.ParticipantCount(), 2)
	testutil.AssertEqual(t, "keeps start", c.StartedAt, start)
	testutil.AssertEqual(t, "copies state", c.State["lever"], any(true))

	c.Merge(map[string]any{"lever": false})
	testutil.AssertEqual(t, "stored participants", a.ParticipantCount(), 1)
	testutil.AssertEqual(t, "stored state", a.State["lever"], any(true))
}

func TestAttemptMarkSolved(t *testing.T) {
	at := NewAttemptTable()
	at.Join("gate", "s1", time.Unix(50, 0))

	at.MarkSolved("gate")
	testutil.AssertEqual(t, "attempt dropped", at.Get("gate") == nil, true)
	testutil.AssertEqual(t, "solved", at.Solved("gate"), true)
	testutil.AssertEqual(t, "others unsolved", at.Solved("riddle"), false)

	at.Leave("s1")
	testutil.AssertEqual(t, "leaving keeps solved", at.Solved("gate"), true)
}
