package validate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/l1jgo/realmsync/internal/data"
	"github.com/l1jgo/realmsync/internal/world"
)

// Expired reports whether the attempt is past the puzzle's time limit.
func Expired(p *data.PuzzleInfo, a *world.PuzzleAttempt, now time.Time) bool {
	return p.TimeLimit > 0 && now.Sub(a.StartedAt) > p.TimeLimit
}

// Solution evaluates a submission against an attempt. Checks run in order:
// time limit, quorum, then the solution predicate for the puzzle kind.
func (v *Validator) Solution(puzzleID string, a *world.PuzzleAttempt, solution json.RawMessage, now time.Time) (*data.PuzzleInfo, error) {
	p, err := v.Puzzle(puzzleID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return p, fmt.Errorf("%w: no attempt in progress", ErrQuorumNotMet)
	}
	if Expired(p, a, now) {
		return p, ErrPuzzleExpired
	}
	if n := a.ParticipantCount(); n < p.RequiredPlayers {
		return p, fmt.Errorf("%w: %d of %d", ErrQuorumNotMet, n, p.RequiredPlayers)
	}

	var ok bool
	switch p.Kind {
	case data.PuzzleLogic:
		ok, err = matchAnswer(p.Answer, solution)
	case data.PuzzleMemory:
		ok, err = matchSequence(p.Sequence, solution)
	case data.PuzzleEnvironmental:
		ok, err = matchTargets(p.Targets, p.Tolerance, solution)
	default:
		err = fmt.Errorf("unsupported puzzle kind %q", p.Kind)
	}
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrIncorrectSolution, err)
	}
	if !ok {
		return p, ErrIncorrectSolution
	}
	return p, nil
}

func matchAnswer(answer string, raw json.RawMessage) (bool, error) {
	var got string
	if err := json.Unmarshal(raw, &got); err != nil {
		return false, fmt.Errorf("decode answer: %w", err)
	}
	return got == answer, nil
}

func matchSequence(seq []string, raw json.RawMessage) (bool, error) {
	// elements must be JSON strings; 3 or true never match "3" or "true"
	var got []string
	if err := json.Unmarshal(raw, &got); err != nil {
		return false, fmt.Errorf("decode sequence: %w", err)
	}
	if len(got) != len(seq) {
		return false, nil
	}
	for i, g := range got {
		if g != seq[i] {
			return false, nil
		}
	}
	return true, nil
}

// matchTargets requires a one-to-one pairing of submitted positions with
// targets where every pair is within tolerance.
func matchTargets(targets []data.Point, tolerance float64, raw json.RawMessage) (bool, error) {
	var got []world.Vec3
	if err := json.Unmarshal(raw, &got); err != nil {
		return false, fmt.Errorf("decode positions: %w", err)
	}
	if len(got) != len(targets) {
		return false, nil
	}

	near := make([][]int, len(targets))
	for ti, t := range targets {
		tv := world.Vec3{X: t.X, Y: t.Y, Z: t.Z}
		for gi, g := range got {
			if world.Distance(tv, g) <= tolerance {
				near[ti] = append(near[ti], gi)
			}
		}
	}

	// augmenting-path bipartite matching; target counts are small
	owner := make([]int, len(got))
	for i := range owner {
		owner[i] = -1
	}
	var try func(ti int, seen []bool) bool
	try = func(ti int, seen []bool) bool {
		for _, gi := range near[ti] {
			if seen[gi] {
				continue
			}
			seen[gi] = true
			if owner[gi] < 0 || try(owner[gi], seen) {
				owner[gi] = ti
				return true
			}
		}
		return false
	}
	for ti := range targets {
		if !try(ti, make([]bool, len(got))) {
			return false, nil
		}
	}
	return true, nil
}
