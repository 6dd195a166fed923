package event

// Domain events. Emitted by the gateway handlers, consumed one tick later by
// observers such as the NATS relay. Clients never see these directly.

type PlayerJoined struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
	Account     string `json:"account"`
	RoomID      string `json:"roomId"`
}

type PlayerLeft struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
	RoomID      string `json:"roomId"`
}

type RoomChanged struct {
	SessionID string `json:"sessionId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type SkillUsed struct {
	SessionID string `json:"sessionId"`
	SkillID   string `json:"skillId"`
	RoomID    string `json:"roomId"`
}

type PuzzleSolved struct {
	PuzzleID     string   `json:"puzzleId"`
	Participants []string `json:"participants"`
	RoomID       string   `json:"roomId"`
}

type ObjectInteracted struct {
	SessionID   string `json:"sessionId"`
	ObjectID    string `json:"objectId"`
	Interaction string `json:"interaction"`
	RoomID      string `json:"roomId"`
}

// Name returns the stable event name used for relay subjects.
func Name(ev any) string {
	switch ev.(type) {
	case PlayerJoined:
		return "player_joined"
	case PlayerLeft:
		return "player_left"
	case RoomChanged:
		return "room_changed"
	case SkillUsed:
		return "skill_used"
	case PuzzleSolved:
		return "puzzle_solved"
	case ObjectInteracted:
		return "object_interaction"
	default:
		return "unknown"
	}
}
