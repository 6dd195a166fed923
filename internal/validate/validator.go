package validate

import (
	"github.com/l1jgo/realmsync/internal/data"
)

// Validator runs the per-action precondition checks. It reads session and
// table state but never writes it: every method returns a decision and the
// caller applies it.
type Validator struct {
	maxSpeed float64 // units per second
	slack    float64 // distance tolerated on top of maxSpeed*dt
	maxCoord float64 // zero disables the bound
	skills   *data.SkillTable
	puzzles  *data.PuzzleTable
}

type Options struct {
	MaxSpeed      float64
	SpeedSlack    float64
	MaxCoordinate float64
	Skills        *data.SkillTable
	Puzzles       *data.PuzzleTable
}

func New(opts Options) *Validator {
	return &Validator{
		maxSpeed: opts.MaxSpeed,
		slack:    opts.SpeedSlack,
		maxCoord: opts.MaxCoordinate,
		skills:   opts.Skills,
		puzzles:  opts.Puzzles,
	}
}

// Puzzle returns the definition for puzzleID, or ErrUnknownPuzzle.
func (v *Validator) Puzzle(puzzleID string) (*data.PuzzleInfo, error) {
	p := v.puzzles.Get(puzzleID)
	if p == nil {
		return nil, ErrUnknownPuzzle
	}
	return p, nil
}
