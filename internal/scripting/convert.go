package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/realmsync/internal/world"
)

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func toObjectState(t *lua.LTable) world.ObjectState {
	obj := world.ObjectState{ID: lStr(t, "id")}
	if st, ok := t.RawGetString("state").(*lua.LTable); ok {
		if m, ok := toGo(st).(map[string]any); ok {
			obj.State = m
		}
	}
	return obj
}

// toGo converts a Lua value into plain Go values for JSON encoding. Tables
// with a non-empty array part and no string keys become []any.
func toGo(v lua.LValue) any {
	switch lv := v.(type) {
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		return float64(lv)
	case lua.LString:
		return string(lv)
	case *lua.LTable:
		if n := lv.Len(); n > 0 && !hasStringKeys(lv) {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGo(lv.RawGetInt(i)))
			}
			return arr
		}
		m := make(map[string]any)
		lv.ForEach(func(k, val lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGo(val)
			}
		})
		return m
	default:
		return nil
	}
}

func hasStringKeys(t *lua.LTable) bool {
	found := false
	t.ForEach(func(k, _ lua.LValue) {
		if _, ok := k.(lua.LString); ok {
			found = true
		}
	})
	return found
}
