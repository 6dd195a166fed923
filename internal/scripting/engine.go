package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/world"
)

// Engine wraps a single gopher-lua VM that implements world.World.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

var _ world.World = (*Engine)(nil)

// NewEngine creates a Lua engine and loads every script under scriptsDir/world.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.loadDir(filepath.Join(scriptsDir, "world")); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load world scripts: %w", err)
	}
	return e, nil
}

// NewEngineFromString builds an engine from a single script. Used by tests
// and embedded defaults.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Advance calls world_advance(dt_seconds). A missing function is a no-op.
func (e *Engine) Advance(dt time.Duration) {
	fn := e.vm.GetGlobal("world_advance")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(dt.Seconds())); err != nil {
		e.log.Error("lua world_advance error", zap.Error(err))
	}
}

// Snapshot calls world_snapshot() and converts the returned table:
//
//	{ time_of_day = 13.5, weather = "rain", objects = { {id = "lever", state = {...}}, ... } }
func (e *Engine) Snapshot() world.Snapshot {
	fn := e.vm.GetGlobal("world_snapshot")
	if fn == lua.LNil {
		return world.Snapshot{}
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		e.log.Error("lua world_snapshot error", zap.Error(err))
		return world.Snapshot{}
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua world_snapshot returned non-table")
		return world.Snapshot{}
	}

	snap := world.Snapshot{
		TimeOfDay: float64(lua.LVAsNumber(rt.RawGetString("time_of_day"))),
		Weather:   lStr(rt, "weather"),
	}
	if objs, ok := rt.RawGetString("objects").(*lua.LTable); ok {
		n := objs.Len()
		snap.Objects = make([]world.ObjectState, 0, n)
		for i := 1; i <= n; i++ {
			ot, ok := objs.RawGetInt(i).(*lua.LTable)
			if !ok {
				continue
			}
			snap.Objects = append(snap.Objects, toObjectState(ot))
		}
	}
	return snap
}

// Interact calls object_interact(req). The script returns the object's new
// state table, or nil plus an error string. "unknown_object" maps to
// world.ErrUnknownObject; any other string rejects the interaction.
func (e *Engine) Interact(req world.Interaction) (world.ObjectState, error) {
	fn := e.vm.GetGlobal("object_interact")
	if fn == lua.LNil {
		return world.ObjectState{}, world.ErrUnknownObject
	}

	t := e.vm.NewTable()
	t.RawSetString("session_id", lua.LString(req.SessionID))
	t.RawSetString("character_id", lua.LString(req.CharacterID))
	t.RawSetString("object_id", lua.LString(req.ObjectID))
	t.RawSetString("interaction", lua.LString(req.Interaction))
	pos := e.vm.NewTable()
	pos.RawSetString("x", lua.LNumber(req.Position.X))
	pos.RawSetString("y", lua.LNumber(req.Position.Y))
	pos.RawSetString("z", lua.LNumber(req.Position.Z))
	t.RawSetString("position", pos)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    2,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua object_interact error", zap.Error(err))
		return world.ObjectState{}, fmt.Errorf("%w: script error", world.ErrInteractionRejected)
	}

	result := e.vm.Get(-2)
	reason := e.vm.Get(-1)
	e.vm.Pop(2)

	if rt, ok := result.(*lua.LTable); ok {
		obj := toObjectState(rt)
		if obj.ID == "" {
			obj.ID = req.ObjectID
		}
		return obj, nil
	}

	msg := lua.LVAsString(reason)
	if msg == "unknown_object" {
		return world.ObjectState{}, world.ErrUnknownObject
	}
	if msg == "" {
		msg = "rejected"
	}
	return world.ObjectState{}, fmt.Errorf("%w: %s", world.ErrInteractionRejected, msg)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
