package validate

import (
	"errors"

	"github.com/l1jgo/realmsync/internal/world"
)

// Validation failures. These are recovered locally: the originating client
// receives the code, nobody else sees anything.
var (
	ErrInvalidMovement      = errors.New("invalid movement")
	ErrUnknownSkill         = errors.New("unknown skill")
	ErrSkillOnCooldown      = errors.New("skill on cooldown")
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrUnknownPuzzle        = errors.New("unknown puzzle")
	ErrQuorumNotMet         = errors.New("not enough participants")
	ErrPuzzleExpired        = errors.New("puzzle time limit expired")
	ErrPuzzleAlreadySolved  = errors.New("puzzle already solved")
	ErrIncorrectSolution    = errors.New("incorrect solution")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidMovement, "invalid_movement"},
	{ErrUnknownSkill, "unknown_skill"},
	{ErrSkillOnCooldown, "skill_on_cooldown"},
	{ErrInsufficientResource, "insufficient_resource"},
	{ErrUnknownPuzzle, "unknown_puzzle"},
	{ErrQuorumNotMet, "quorum_not_met"},
	{ErrPuzzleExpired, "puzzle_expired"},
	{ErrPuzzleAlreadySolved, "puzzle_already_solved"},
	{ErrIncorrectSolution, "incorrect_solution"},
	{world.ErrUnknownObject, "unknown_object"},
	{world.ErrInteractionRejected, "interaction_rejected"},
}

// Code maps an error to its wire code. Unrecognised errors map to "rejected".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "rejected"
}
