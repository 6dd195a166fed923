package event

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestEventsVisibleNextTick(t *testing.T) {
	b := NewBus()
	var joined []PlayerJoined
	Subscribe(b, func(ev PlayerJoined) { joined = append(joined, ev) })

	Emit(b, PlayerJoined{SessionID: "a"})
	b.DispatchAll()
	testutil.AssertEqual(t, "same tick", len(joined), 0)

	b.SwapBuffers()
	b.DispatchAll()
	testutil.AssertEqual(t, "next tick", len(joined), 1)
	testutil.AssertEqual(t, "session", joined[0].SessionID, "a")

	b.SwapBuffers()
	b.DispatchAll()
	testutil.AssertEqual(t, "not redelivered", len(joined), 1)
}

func TestSubscribeAllKeepsOrder(t *testing.T) {
	b := NewBus()
	var names []string
	b.SubscribeAll(func(ev any) { names = append(names, Name(ev)) })

	Emit(b, PlayerJoined{SessionID: "a"})
	Emit(b, RoomChanged{SessionID: "a", From: "room_0_0", To: "room_1_0"})
	Emit(b, PlayerLeft{SessionID: "a"})
	testutil.AssertEqual(t, "pending", b.Pending(), 3)

	b.SwapBuffers()
	b.DispatchAll()

	exp := []string{"player_joined", "room_changed", "player_left"}
	testutil.AssertEqual(t, "count", len(names), len(exp))
	for i := range exp {
		testutil.AssertEqual(t, "name", names[i], exp[i])
	}
}
