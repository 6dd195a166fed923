package world

import (
	"fmt"
	"math"
	"sort"
)

// RoomID names a grid cell: room_{gridX}_{gridZ}.
type RoomID string

// DefaultCellSize is the world-unit edge length of one room.
const DefaultCellSize = 1000

// Partitioner maps positions to rooms and tracks which sessions are in
// which room. A session is in at most one room; Assign onto a second room
// moves it. Accessed only from the game loop goroutine; no locks.
type Partitioner struct {
	cellSize float64
	cells    map[RoomID]map[string]struct{} // room → set of session ids
	where    map[string]RoomID              // session id → room
}

func NewPartitioner(cellSize float64) *Partitioner {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Partitioner{
		cellSize: cellSize,
		cells:    make(map[RoomID]map[string]struct{}),
		where:    make(map[string]RoomID),
	}
}

func (g *Partitioner) CellSize() float64 { return g.cellSize }

// cellLimit is 2^63. Grid coordinates outside int64 saturate instead of
// relying on an out-of-range float conversion.
const cellLimit = 1 << 63

func (g *Partitioner) toCellCoord(v float64) int64 {
	q := math.Floor(v / g.cellSize)
	switch {
	case q >= cellLimit:
		return math.MaxInt64
	case q < -cellLimit:
		return math.MinInt64
	}
	return int64(q)
}

// RoomIDFor returns the room containing pos. Y is ignored.
func (g *Partitioner) RoomIDFor(pos Vec3) RoomID {
	return RoomID(fmt.Sprintf("room_%d_%d", g.toCellCoord(pos.X), g.toCellCoord(pos.Z)))
}

// Assign places a session into room, creating the room if absent. If the
// session was in another room it is added here first and removed there
// second, so it is never observed in zero rooms.
func (g *Partitioner) Assign(sessionID string, room RoomID) {
	cell := g.cells[room]
	if cell == nil {
		cell = make(map[string]struct{})
		g.cells[room] = cell
	}
	cell[sessionID] = struct{}{}

	prev, had := g.where[sessionID]
	g.where[sessionID] = room
	if had && prev != room {
		g.removeFrom(sessionID, prev)
	}
}

// Unassign takes a session out of room, deleting the room when it empties.
// A no-op if the session is not in that room.
func (g *Partitioner) Unassign(sessionID string, room RoomID) {
	if g.where[sessionID] != room {
		return
	}
	delete(g.where, sessionID)
	g.removeFrom(sessionID, room)
}

func (g *Partitioner) removeFrom(sessionID string, room RoomID) {
	cell := g.cells[room]
	if cell == nil {
		return
	}
	delete(cell, sessionID)
	if len(cell) == 0 {
		delete(g.cells, room)
	}
}

// Move migrates a session between rooms; new membership is added before
// the old one is dropped.
func (g *Partitioner) Move(sessionID string, oldRoom, newRoom RoomID) {
	if oldRoom == newRoom {
		return
	}
	g.Assign(sessionID, newRoom)
}

// RoomOf returns the session's current room.
func (g *Partitioner) RoomOf(sessionID string) (RoomID, bool) {
	r, ok := g.where[sessionID]
	return r, ok
}

// MembersOf returns the session ids in room, sorted.
func (g *Partitioner) MembersOf(room RoomID) []string {
	cell := g.cells[room]
	out := make([]string, 0, len(cell))
	for id := range cell {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Size reports the member count of room.
func (g *Partitioner) Size(room RoomID) int { return len(g.cells[room]) }

// Rooms returns every non-empty room, sorted.
func (g *Partitioner) Rooms() []RoomID {
	out := make([]RoomID, 0, len(g.cells))
	for r := range g.cells {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
