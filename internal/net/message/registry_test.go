package message

import (
	"errors"
	"testing"

	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"
)

func TestDispatchRoutesByType(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got PlayerMove
	calls := 0
	reg.Register(TypePlayerMove, []SessionState{StateJoined}, func(sess any, env *Envelope) {
		calls++
		if err := env.Bind(&got); err != nil {
			t.Errorf("bind: %v", err)
		}
		testutil.AssertEqual(t, "session passthrough", sess.(string), "s1")
	})

	err := reg.Dispatch("s1", StateJoined, []byte(`{"type":"player_move","position":{"x":1,"y":2,"z":3}}`))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	testutil.AssertEqual(t, "calls", calls, 1)
	testutil.AssertEqual(t, "x", got.Position.X, 1.0)
	testutil.AssertEqual(t, "z", got.Position.Z, 3.0)
}

func TestDispatchRejections(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(TypeUseSkill, []SessionState{StateJoined}, func(any, *Envelope) {
		t.Error("handler must not run")
	})

	tests := map[string]struct {
		state  SessionState
		data   string
		expErr error
	}{
		"not json":      {StateJoined, `{"type":`, ErrMalformedMessage},
		"missing type":  {StateJoined, `{"skillId":"heal"}`, ErrMalformedMessage},
		"wrong state":   {StateAuthenticated, `{"type":"use_skill"}`, ErrNotAllowed},
		"unknown type":  {StateJoined, `{"type":"dance"}`, nil},
		"array payload": {StateJoined, `[1,2]`, ErrMalformedMessage},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := reg.Dispatch(nil, tt.state, []byte(tt.data))
			if tt.expErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expErr) {
				t.Fatalf("expected %v, got %v", tt.expErr, err)
			}
		})
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(TypeObjectInteract, []SessionState{StateJoined}, func(any, *Envelope) {
		panic("boom")
	})
	err := reg.Dispatch(nil, StateJoined, []byte(`{"type":"object_interact"}`))
	testutil.AssertErrorContains(t, err, "handler panic")

	// registry keeps working afterwards
	testutil.AssertEqual(t, "handles", reg.Handles(TypeObjectInteract), true)
}

func TestBindTypeMismatch(t *testing.T) {
	env, err := Decode([]byte(`{"type":"use_skill","skillId":7}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var req UseSkill
	if err := env.Bind(&req); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestEncodeFlatEnvelope(t *testing.T) {
	data, err := Encode(SkillResult{Type: TypeSkillResult, SkillID: "heal", Error: "skill_on_cooldown", Energy: 40})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	testutil.AssertEqual(t, "json", string(data),
		`{"type":"skill_result","skillId":"heal","success":false,"error":"skill_on_cooldown","energy":40}`)
}
