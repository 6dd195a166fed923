package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PuzzleKind selects the solution predicate.
type PuzzleKind string

const (
	PuzzleEnvironmental PuzzleKind = "environmental" // positional proximity set-equality
	PuzzleLogic         PuzzleKind = "logic"         // exact string equality
	PuzzleMemory        PuzzleKind = "memory"        // exact sequence equality
)

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// PuzzleInfo holds one puzzle definition.
type PuzzleInfo struct {
	PuzzleID        string
	Kind            PuzzleKind
	RequiredPlayers int
	TimeLimit       time.Duration // 0 = unlimited

	Answer    string   // logic
	Sequence  []string // memory
	Targets   []Point  // environmental
	Tolerance float64  // environmental, max distance per target
}

// PuzzleTable holds all puzzles indexed by PuzzleID.
type PuzzleTable struct {
	puzzles map[string]*PuzzleInfo
}

// Get returns a puzzle by ID, or nil if not found.
func (t *PuzzleTable) Get(puzzleID string) *PuzzleInfo {
	if t == nil {
		return nil
	}
	return t.puzzles[puzzleID]
}

// Count returns total loaded puzzles.
func (t *PuzzleTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.puzzles)
}

// --- YAML loading ---

type puzzleEntry struct {
	PuzzleID        string   `yaml:"puzzle_id"`
	Type            string   `yaml:"type"`
	RequiredPlayers int      `yaml:"required_players"`
	TimeLimitMs     int64    `yaml:"time_limit_ms"`
	Answer          string   `yaml:"answer"`
	Sequence        []string `yaml:"sequence"`
	Targets         []Point  `yaml:"targets"`
	Tolerance       float64  `yaml:"tolerance"`
}

type puzzleListFile struct {
	Puzzles []puzzleEntry `yaml:"puzzles"`
}

// LoadPuzzleTable loads puzzle definitions from YAML.
func LoadPuzzleTable(path string) (*PuzzleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read puzzles: %w", err)
	}
	return ParsePuzzleTable(raw)
}

func ParsePuzzleTable(raw []byte) (*PuzzleTable, error) {
	var f puzzleListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse puzzles: %w", err)
	}
	t := &PuzzleTable{puzzles: make(map[string]*PuzzleInfo, len(f.Puzzles))}
	for i, e := range f.Puzzles {
		p, err := e.toInfo()
		if err != nil {
			return nil, fmt.Errorf("puzzle %d: %w", i, err)
		}
		if _, dup := t.puzzles[p.PuzzleID]; dup {
			return nil, fmt.Errorf("puzzle %q: duplicate id", p.PuzzleID)
		}
		t.puzzles[p.PuzzleID] = p
	}
	return t, nil
}

func (e puzzleEntry) toInfo() (*PuzzleInfo, error) {
	if e.PuzzleID == "" {
		return nil, fmt.Errorf("puzzle_id is required")
	}
	p := &PuzzleInfo{
		PuzzleID:        e.PuzzleID,
		Kind:            PuzzleKind(e.Type),
		RequiredPlayers: e.RequiredPlayers,
		TimeLimit:       time.Duration(e.TimeLimitMs) * time.Millisecond,
		Answer:          e.Answer,
		Sequence:        e.Sequence,
		Targets:         e.Targets,
		Tolerance:       e.Tolerance,
	}
	if p.RequiredPlayers < 1 {
		p.RequiredPlayers = 1
	}
	if e.TimeLimitMs < 0 {
		return nil, fmt.Errorf("%s: time_limit_ms must not be negative", e.PuzzleID)
	}
	switch p.Kind {
	case PuzzleLogic:
		if p.Answer == "" {
			return nil, fmt.Errorf("%s: logic puzzle needs an answer", e.PuzzleID)
		}
	case PuzzleMemory:
		if len(p.Sequence) == 0 {
			return nil, fmt.Errorf("%s: memory puzzle needs a sequence", e.PuzzleID)
		}
	case PuzzleEnvironmental:
		if len(p.Targets) == 0 {
			return nil, fmt.Errorf("%s: environmental puzzle needs targets", e.PuzzleID)
		}
		if p.Tolerance <= 0 {
			return nil, fmt.Errorf("%s: environmental puzzle needs a positive tolerance", e.PuzzleID)
		}
	default:
		return nil, fmt.Errorf("%s: unknown type %q", e.PuzzleID, e.Type)
	}
	return p, nil
}
