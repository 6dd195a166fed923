package message

import (
	"encoding/json"

	"github.com/l1jgo/realmsync/internal/world"
)

// Inbound message types.
const (
	TypeAuthenticate   = "authenticate"
	TypeJoinGame       = "join_game"
	TypePlayerMove     = "player_move"
	TypeUseSkill       = "use_skill"
	TypePuzzleInteract = "puzzle_interact"
	TypeObjectInteract = "object_interact"
	TypeLeaveGame      = "leave_game"
)

// Outbound message types.
const (
	TypeAuthResult         = "auth_result"
	TypeGameJoined         = "game_joined"
	TypePlayerJoined       = "player_joined"
	TypeGameStateUpdate    = "game_state_update"
	TypePlayerMoved        = "player_moved"
	TypeMoveRejected       = "move_rejected"
	TypeRoomChanged        = "room_changed"
	TypeSkillUsed          = "skill_used"
	TypeSkillResult        = "skill_result"
	TypePuzzleUpdated      = "puzzle_updated"
	TypePuzzleSolved       = "puzzle_solved"
	TypePuzzleResult       = "puzzle_result"
	TypeObjectInteraction  = "object_interaction"
	TypeObjectResult       = "object_result"
	TypePlayerDisconnected = "player_disconnected"
	TypeError              = "error"
)

// Puzzle interaction actions.
const (
	PuzzleActionJoin   = "join"
	PuzzleActionUpdate = "update"
	PuzzleActionSubmit = "submit"
)

// --- inbound payloads ---

type Authenticate struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type JoinGame struct {
	CharacterID string      `json:"characterId"`
	Position    *world.Vec3 `json:"position"`
	Rotation    *world.Vec3 `json:"rotation"`
}

type PlayerMove struct {
	Position *world.Vec3 `json:"position"`
	Rotation *world.Vec3 `json:"rotation"`
}

type UseSkill struct {
	SkillID string          `json:"skillId"`
	Target  json.RawMessage `json:"target,omitempty"`
}

type PuzzleInteract struct {
	PuzzleID string          `json:"puzzleId"`
	Action   string          `json:"action,omitempty"`
	State    map[string]any  `json:"state,omitempty"`
	Solution json.RawMessage `json:"solution,omitempty"`
}

type ObjectInteract struct {
	ObjectID    string `json:"objectId"`
	Interaction string `json:"interaction"`
}

// --- outbound payloads ---

type AuthResult struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type GameJoined struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	RoomID    world.RoomID    `json:"roomId"`
	Self      world.Summary   `json:"self"`
	Members   []world.Summary `json:"members"`
	Energy    int             `json:"energy"`
	Skills    []string        `json:"skills"`
	World     world.Snapshot  `json:"world"`
}

type PlayerJoined struct {
	Type   string        `json:"type"`
	Player world.Summary `json:"player"`
	RoomID world.RoomID  `json:"roomId"`
}

type GameStateUpdate struct {
	Type    string          `json:"type"`
	Tick    uint64          `json:"tick"`
	RoomID  world.RoomID    `json:"roomId"`
	Players []world.Summary `json:"players"`
	World   world.Snapshot  `json:"world"`
}

type PlayerMoved struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId"`
	Position  world.Vec3   `json:"position"`
	Rotation  world.Vec3   `json:"rotation"`
	RoomID    world.RoomID `json:"roomId"`
}

type MoveRejected struct {
	Type     string     `json:"type"`
	Error    string     `json:"error"`
	Position world.Vec3 `json:"position"` // authoritative position
	Rotation world.Vec3 `json:"rotation"`
}

type RoomChanged struct {
	Type    string          `json:"type"`
	From    world.RoomID    `json:"from"`
	To      world.RoomID    `json:"to"`
	Members []world.Summary `json:"members"`
}

type SkillUsed struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	SkillID   string          `json:"skillId"`
	Target    json.RawMessage `json:"target,omitempty"`
}

type SkillResult struct {
	Type    string `json:"type"`
	SkillID string `json:"skillId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Energy  int    `json:"energy"`
	ReadyAt int64  `json:"readyAt,omitempty"` // unix millis
}

type PuzzleUpdated struct {
	Type         string         `json:"type"`
	PuzzleID     string         `json:"puzzleId"`
	Participants []string       `json:"participants"`
	State        map[string]any `json:"state"`
}

type PuzzleSolved struct {
	Type         string   `json:"type"`
	PuzzleID     string   `json:"puzzleId"`
	SolvedBy     string   `json:"solvedBy"`
	Participants []string `json:"participants"`
}

type PuzzleResult struct {
	Type     string `json:"type"`
	PuzzleID string `json:"puzzleId"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type ObjectInteraction struct {
	Type        string            `json:"type"`
	SessionID   string            `json:"sessionId"`
	ObjectID    string            `json:"objectId"`
	Interaction string            `json:"interaction"`
	Object      world.ObjectState `json:"object"`
}

type ObjectResult struct {
	Type     string `json:"type"`
	ObjectID string `json:"objectId"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type PlayerDisconnected struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId"`
	RoomID    world.RoomID `json:"roomId"`
}

type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
