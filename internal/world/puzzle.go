package world

import (
	"sort"
	"time"
)

// PuzzleAttempt is the mutable state of one in-progress puzzle solve.
type PuzzleAttempt struct {
	PuzzleID     string
	Participants map[string]struct{}
	StartedAt    time.Time
	State        map[string]any // merged from participant updates
}

func (a *PuzzleAttempt) ParticipantCount() int { return len(a.Participants) }

// ParticipantIDs returns participant session ids, sorted.
func (a *PuzzleAttempt) ParticipantIDs() []string {
	out := make([]string, 0, len(a.Participants))
	for id := range a.Participants {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Merge copies the keys of update into the attempt state.
func (a *PuzzleAttempt) Merge(update map[string]any) {
	if a.State == nil {
		a.State = make(map[string]any, len(update))
	}
	for k, v := range update {
		a.State[k] = v
	}
}

// AttemptTable holds one attempt per puzzle id and the set of puzzles that
// have been solved. A solved puzzle stays solved for the process lifetime.
type AttemptTable struct {
	attempts map[string]*PuzzleAttempt
	solved   map[string]struct{}
}

func NewAttemptTable() *AttemptTable {
	return &AttemptTable{
		attempts: make(map[string]*PuzzleAttempt),
		solved:   make(map[string]struct{}),
	}
}

func (t *AttemptTable) Get(puzzleID string) *PuzzleAttempt { return t.attempts[puzzleID] }

// Join registers sessionID on the puzzle's attempt, starting the attempt at
// now if none is in progress.
func (t *AttemptTable) Join(puzzleID, sessionID string, now time.Time) *PuzzleAttempt {
	a := t.attempts[puzzleID]
	if a == nil {
		a = &PuzzleAttempt{
			PuzzleID:     puzzleID,
			Participants: make(map[string]struct{}),
			StartedAt:    now,
			State:        make(map[string]any),
		}
		t.attempts[puzzleID] = a
	}
	a.Participants[sessionID] = struct{}{}
	return a
}

// Candidate returns what the attempt would look like with sessionID taking
// part, without storing anything. The returned attempt is a copy.
func (t *AttemptTable) Candidate(puzzleID, sessionID string, now time.Time) *PuzzleAttempt {
	c := &PuzzleAttempt{
		PuzzleID:     puzzleID,
		Participants: map[string]struct{}{sessionID: {}},
		StartedAt:    now,
		State:        make(map[string]any),
	}
	if a := t.attempts[puzzleID]; a != nil {
		c.StartedAt = a.StartedAt
		for id := range a.Participants {
			c.Participants[id] = struct{}{}
		}
		for k, v := range a.State {
			c.State[k] = v
		}
	}
	return c
}

func (t *AttemptTable) Remove(puzzleID string) {
	delete(t.attempts, puzzleID)
}

// MarkSolved drops the puzzle's attempt and records it as solved.
func (t *AttemptTable) MarkSolved(puzzleID string) {
	delete(t.attempts, puzzleID)
	t.solved[puzzleID] = struct{}{}
}

func (t *AttemptTable) Solved(puzzleID string) bool {
	_, ok := t.solved[puzzleID]
	return ok
}

// Leave removes the session from every attempt. Attempts left without
// participants are discarded.
func (t *AttemptTable) Leave(sessionID string) {
	for id, a := range t.attempts {
		if _, ok := a.Participants[sessionID]; !ok {
			continue
		}
		delete(a.Participants, sessionID)
		if len(a.Participants) == 0 {
			delete(t.attempts, id)
		}
	}
}

// Involves reports whether the session participates in any attempt.
func (t *AttemptTable) Involves(sessionID string) bool {
	for _, a := range t.attempts {
		if _, ok := a.Participants[sessionID]; ok {
			return true
		}
	}
	return false
}

func (t *AttemptTable) Len() int { return len(t.attempts) }
