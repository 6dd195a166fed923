package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

const skillsYAML = `
skills:
  - skill_id: heal
    name: Heal
    cooldown_ms: 5000
    cost: 20
    starter: true
  - skill_id: dash
    cooldown_ms: 1000
    cost: 5
    starter: true
  - skill_id: meteor
    cooldown_ms: 60000
    cost: 90
`

func TestLoadSkillTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.yaml")
	if err := os.WriteFile(path, []byte(skillsYAML), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := LoadSkillTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "count", tbl.Count(), 3)
	heal := tbl.Get("heal")
	if heal == nil {
		t.Fatal("expected heal")
	}
	testutil.AssertEqual(t, "cooldown", heal.Cooldown, 5*time.Second)
	testutil.AssertEqual(t, "cost", heal.Cost, 20)

	starters := tbl.StarterSet()
	testutil.AssertEqual(t, "starters", len(starters), 2)
	_, hasMeteor := starters["meteor"]
	testutil.AssertEqual(t, "meteor locked", hasMeteor, false)
}

func TestParseSkillTableErrors(t *testing.T) {
	tests := map[string]struct {
		body   string
		expErr string
	}{
		"missing id":  {"skills:\n  - name: x\n", "skill_id is required"},
		"duplicate":   {"skills:\n  - skill_id: a\n  - skill_id: a\n", "duplicate id"},
		"negative":    {"skills:\n  - skill_id: a\n    cost: -1\n", "must not be negative"},
		"broken yaml": {"skills: [", "parse skills"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSkillTable([]byte(tt.body))
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

const puzzlesYAML = `
puzzles:
  - puzzle_id: riddle
    type: logic
    answer: echo
  - puzzle_id: bells
    type: memory
    required_players: 2
    time_limit_ms: 30000
    sequence: [low, high, low]
  - puzzle_id: statues
    type: environmental
    tolerance: 25
    targets:
      - {x: 100, y: 0, z: 100}
      - {x: 200, y: 0, z: 100}
`

func TestParsePuzzleTable(t *testing.T) {
	tbl, err := ParsePuzzleTable([]byte(puzzlesYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "count", tbl.Count(), 3)

	riddle := tbl.Get("riddle")
	testutil.AssertEqual(t, "default quorum", riddle.RequiredPlayers, 1)
	testutil.AssertEqual(t, "no limit", riddle.TimeLimit, time.Duration(0))

	bells := tbl.Get("bells")
	testutil.AssertEqual(t, "kind", bells.Kind, PuzzleMemory)
	testutil.AssertEqual(t, "limit", bells.TimeLimit, 30*time.Second)
	testutil.AssertEqual(t, "sequence", len(bells.Sequence), 3)

	statues := tbl.Get("statues")
	testutil.AssertEqual(t, "targets", len(statues.Targets), 2)
	testutil.AssertEqual(t, "target x", statues.Targets[1].X, 200.0)
}

func TestParsePuzzleTableErrors(t *testing.T) {
	tests := map[string]struct {
		body   string
		expErr string
	}{
		"unknown type":       {"puzzles:\n  - puzzle_id: a\n    type: jigsaw\n", "unknown type"},
		"logic no answer":    {"puzzles:\n  - puzzle_id: a\n    type: logic\n", "needs an answer"},
		"memory no sequence": {"puzzles:\n  - puzzle_id: a\n    type: memory\n", "needs a sequence"},
		"env no tolerance":   {"puzzles:\n  - puzzle_id: a\n    type: environmental\n    targets: [{x: 1}]\n", "positive tolerance"},
		"missing id":         {"puzzles:\n  - type: logic\n", "puzzle_id is required"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePuzzleTable([]byte(tt.body))
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestShippedContentLoads(t *testing.T) {
	skills, err := LoadSkillTable(filepath.Join("..", "..", "data", "skills.yaml"))
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	testutil.AssertEqual(t, "heal cooldown", skills.Get("heal").Cooldown, 5*time.Second)
	testutil.AssertEqual(t, "starter set", len(skills.StarterSet()), 4)

	puzzles, err := LoadPuzzleTable(filepath.Join("..", "..", "data", "puzzles.yaml"))
	if err != nil {
		t.Fatalf("puzzles: %v", err)
	}
	testutil.AssertEqual(t, "puzzles", puzzles.Count(), 3)
	testutil.AssertEqual(t, "plates quorum", puzzles.Get("pressure_plates").RequiredPlayers, 3)
}
