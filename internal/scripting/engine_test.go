package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/world"
)

const testScript = `
local hours = 6
local weather = "clear"
local doors = { door = { open = false, tags = { "oak", "heavy" } } }

function world_advance(dt)
  hours = (hours + dt / 60) % 24
  if hours >= 12 then weather = "rain" end
end

function world_snapshot()
  return {
    time_of_day = hours,
    weather = weather,
    objects = { { id = "door", state = doors.door } },
  }
end

function object_interact(req)
  if req.object_id ~= "door" then
    return nil, "unknown_object"
  end
  if req.interaction ~= "open" then
    return nil, "locked"
  end
  if req.position.x > 100 then
    return nil, "too_far"
  end
  doors.door.open = true
  return { state = doors.door }
end
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngineFromString(testScript, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestAdvanceAndSnapshot(t *testing.T) {
	e := newTestEngine(t)

	snap := e.Snapshot()
	testutil.AssertEqual(t, "time", snap.TimeOfDay, 6.0)
	testutil.AssertEqual(t, "weather", snap.Weather, "clear")
	testutil.AssertEqual(t, "objects", len(snap.Objects), 1)
	testutil.AssertEqual(t, "object id", snap.Objects[0].ID, "door")
	testutil.AssertEqual(t, "open", snap.Objects[0].State["open"], any(false))
	tags, ok := snap.Objects[0].State["tags"].([]any)
	testutil.AssertEqual(t, "tags is list", ok, true)
	testutil.AssertEqual(t, "tags", len(tags), 2)

	e.Advance(6 * time.Hour / 60) // six minutes of dt = six hours of world time
	snap = e.Snapshot()
	testutil.AssertEqual(t, "noon", snap.TimeOfDay, 12.0)
	testutil.AssertEqual(t, "weather changed", snap.Weather, "rain")
}

func TestInteract(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Interact(world.Interaction{ObjectID: "window", Interaction: "open"})
	testutil.AssertEqual(t, "unknown", errors.Is(err, world.ErrUnknownObject), true)

	_, err = e.Interact(world.Interaction{ObjectID: "door", Interaction: "kick"})
	testutil.AssertEqual(t, "rejected", errors.Is(err, world.ErrInteractionRejected), true)
	testutil.AssertErrorContains(t, err, "locked")

	_, err = e.Interact(world.Interaction{ObjectID: "door", Interaction: "open", Position: world.Vec3{X: 500}})
	testutil.AssertErrorContains(t, err, "too_far")

	obj, err := e.Interact(world.Interaction{ObjectID: "door", Interaction: "open"})
	if err != nil {
		t.Fatalf("interact: %v", err)
	}
	testutil.AssertEqual(t, "id defaults to request", obj.ID, "door")
	testutil.AssertEqual(t, "opened", obj.State["open"], any(true))
	testutil.AssertEqual(t, "snapshot reflects it", e.Snapshot().Objects[0].State["open"], any(true))
}

func TestMissingFunctions(t *testing.T) {
	e, err := NewEngineFromString(`x = 1`, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()

	e.Advance(time.Second)
	testutil.AssertEqual(t, "empty snapshot", e.Snapshot().Weather, "")
	_, err = e.Interact(world.Interaction{ObjectID: "any"})
	testutil.AssertEqual(t, "unknown object", errors.Is(err, world.ErrUnknownObject), true)
}

func TestScriptErrorRejects(t *testing.T) {
	e, err := NewEngineFromString(`function object_interact(req) error("boom") end`, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()

	_, err = e.Interact(world.Interaction{ObjectID: "x"})
	testutil.AssertEqual(t, "rejected", errors.Is(err, world.ErrInteractionRejected), true)
}

func TestNewEngineLoadsWorldDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "world"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := `function world_snapshot() return { time_of_day = 3, weather = "fog" } end`
	if err := os.WriteFile(filepath.Join(dir, "world", "a.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()
	testutil.AssertEqual(t, "weather", e.Snapshot().Weather, "fog")

	if err := os.WriteFile(filepath.Join(dir, "world", "b.lua"), []byte(`this is not lua`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewEngine(dir, zap.NewNop())
	testutil.AssertErrorContains(t, err, "load world scripts")
}

func TestBundledWorldScript(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()

	snap := e.Snapshot()
	testutil.AssertEqual(t, "objects", len(snap.Objects), 3)
	testutil.AssertEqual(t, "morning", snap.TimeOfDay, 8.0)

	_, err = e.Interact(world.Interaction{ObjectID: "gate_north", Interaction: "open"})
	testutil.AssertEqual(t, "gate is remote", errors.Is(err, world.ErrInteractionRejected), true)

	if _, err := e.Interact(world.Interaction{ObjectID: "lever_north", Interaction: "pull"}); err != nil {
		t.Fatalf("pull: %v", err)
	}
	for _, o := range e.Snapshot().Objects {
		if o.ID == "gate_north" {
			testutil.AssertEqual(t, "gate opened by lever", o.State["open"], any(true))
		}
	}
}
