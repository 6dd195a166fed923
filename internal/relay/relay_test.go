package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/event"
)

func startServer(t *testing.T) *EmbeddedServer {
	t.Helper()
	srv, err := NewEmbeddedServer(zap.NewNop(), WithPort(-1), WithStartTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestRelayPublishesEvents(t *testing.T) {
	srv := startServer(t)

	sub, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("subscriber connect: %v", err)
	}
	defer sub.Close()
	msgs := make(chan *nats.Msg, 8)
	if _, err := sub.ChanSubscribe("realmsync.test.>", msgs); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r, err := Connect(srv.ClientURL(), "realmsync.test", zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer r.Close()

	bus := event.NewBus()
	r.Attach(bus)
	event.Emit(bus, event.PlayerJoined{SessionID: "s1", CharacterID: "c1", RoomID: "room_0_0"})
	event.Emit(bus, event.PuzzleSolved{PuzzleID: "gate", Participants: []string{"s1", "s2"}})
	bus.SwapBuffers()
	bus.DispatchAll()
	if err := r.conn.Flush(); err != nil {
		t.Fatalf("relay flush: %v", err)
	}

	got := receive(t, msgs)
	testutil.AssertEqual(t, "subject", got.Subject, "realmsync.test.player_joined")
	var joined event.PlayerJoined
	if err := json.Unmarshal(got.Data, &joined); err != nil {
		t.Fatalf("decode: %v", err)
	}
	testutil.AssertEqual(t, "session", joined.SessionID, "s1")
	testutil.AssertEqual(t, "room", joined.RoomID, "room_0_0")

	got = receive(t, msgs)
	testutil.AssertEqual(t, "subject", got.Subject, "realmsync.test.puzzle_solved")

	published, failed := r.Stats()
	testutil.AssertEqual(t, "published", published, uint64(2))
	testutil.AssertEqual(t, "failed", failed, uint64(0))
}

func TestSubject(t *testing.T) {
	r := &Relay{prefix: "events"}
	testutil.AssertEqual(t, "left", r.Subject(event.PlayerLeft{}), "events.player_left")
	testutil.AssertEqual(t, "object", r.Subject(event.ObjectInteracted{}), "events.object_interaction")
}

func TestConnectFails(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "x", zap.NewNop())
	testutil.AssertErrorContains(t, err, "connect nats")
}

func receive(t *testing.T, ch <-chan *nats.Msg) *nats.Msg {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relay message")
		return nil
	}
}
