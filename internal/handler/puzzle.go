package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
	"github.com/l1jgo/realmsync/internal/data"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/validate"
	"github.com/l1jgo/realmsync/internal/world"
)

// HandlePuzzleInteract processes puzzle_interact. The action defaults to
// submit when a solution is present and to join otherwise.
func HandlePuzzleInteract(c Client, env *message.Envelope, deps *Deps) {
	p := joinedPlayer(c, deps)
	if p == nil {
		return
	}
	var req message.PuzzleInteract
	if err := env.Bind(&req); err != nil {
		malformed(c, env, deps, err)
		return
	}
	action := req.Action
	if action == "" {
		action = message.PuzzleActionJoin
		if len(req.Solution) > 0 {
			action = message.PuzzleActionSubmit
		}
	}

	info, err := deps.Validator.Puzzle(req.PuzzleID)
	if err != nil {
		puzzleResult(deps, p, req.PuzzleID, err)
		return
	}

	now := deps.Clock.Now()
	attempts := deps.State.Attempts
	if attempts.Solved(req.PuzzleID) {
		puzzleResult(deps, p, req.PuzzleID, validate.ErrPuzzleAlreadySolved)
		return
	}
	if a := attempts.Get(req.PuzzleID); a != nil && validate.Expired(info, a, now) {
		attempts.Remove(req.PuzzleID)
		puzzleResult(deps, p, req.PuzzleID, validate.ErrPuzzleExpired)
		return
	}

	switch action {
	case message.PuzzleActionJoin:
		a := attempts.Join(req.PuzzleID, p.ID, now)
		p.LastActionAt = now
		announceAttempt(deps, p, a)
	case message.PuzzleActionUpdate:
		a := attempts.Join(req.PuzzleID, p.ID, now)
		a.Merge(req.State)
		p.LastActionAt = now
		announceAttempt(deps, p, a)
	case message.PuzzleActionSubmit:
		submitSolution(deps, p, info, req, now)
	default:
		SendError(c, deps, "unknown_puzzle_action")
	}
}

// submitSolution evaluates the submission as if the submitter had joined.
// A rejected submission leaves the attempt table untouched.
func submitSolution(deps *Deps, p *world.PlayerSession, info *data.PuzzleInfo, req message.PuzzleInteract, now time.Time) {
	attempts := deps.State.Attempts
	a := attempts.Candidate(info.PuzzleID, p.ID, now)
	p.LastActionAt = now

	if _, err := deps.Validator.Solution(info.PuzzleID, a, req.Solution, now); err != nil {
		deps.Log.Debug("puzzle solution rejected",
			zap.String("session", p.ID),
			zap.String("puzzle", info.PuzzleID),
			zap.Error(err),
		)
		puzzleResult(deps, p, info.PuzzleID, err)
		return
	}

	participants := a.ParticipantIDs()
	attempts.MarkSolved(info.PuzzleID)

	solved := message.PuzzleSolved{
		Type:         message.TypePuzzleSolved,
		PuzzleID:     info.PuzzleID,
		SolvedBy:     p.ID,
		Participants: participants,
	}
	deps.Broadcast.Broadcast(p.RoomID, solved, "")
	// Participants standing in other rooms still learn the outcome.
	for _, id := range participants {
		if other := deps.State.Sessions.Get(id); other != nil && other.RoomID != p.RoomID {
			deps.Broadcast.SendTo(id, solved)
		}
	}
	puzzleResult(deps, p, info.PuzzleID, nil)

	event.Emit(deps.Bus, event.PuzzleSolved{
		PuzzleID:     info.PuzzleID,
		Participants: participants,
		RoomID:       string(p.RoomID),
	})
	deps.Log.Info("puzzle solved",
		zap.String("puzzle", info.PuzzleID),
		zap.Strings("participants", participants),
	)
}

func announceAttempt(deps *Deps, p *world.PlayerSession, a *world.PuzzleAttempt) {
	deps.Broadcast.Broadcast(p.RoomID, message.PuzzleUpdated{
		Type:         message.TypePuzzleUpdated,
		PuzzleID:     a.PuzzleID,
		Participants: a.ParticipantIDs(),
		State:        a.State,
	}, "")
}

func puzzleResult(deps *Deps, p *world.PlayerSession, puzzleID string, err error) {
	deps.Broadcast.SendTo(p.ID, message.PuzzleResult{
		Type:     message.TypePuzzleResult,
		PuzzleID: puzzleID,
		Success:  err == nil,
		Error:    validate.Code(err),
	})
}
