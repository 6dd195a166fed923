package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/net/message"
)

type stubAuth struct {
	password string
}

func (a stubAuth) Authenticate(_ context.Context, account, password, _ string) (string, error) {
	if password != a.password {
		return "", ErrInvalidCredentials
	}
	return strings.ToLower(account), nil
}

func newTestServer(t *testing.T, opts SessionOptions) (*Server, string) {
	t.Helper()
	if opts.InQueueSize == 0 {
		opts.InQueueSize = 8
	}
	if opts.OutQueueSize == 0 {
		opts.OutQueueSize = 8
	}
	srv := NewServer(ServerOptions{
		Path:             "/ws",
		HandshakeTimeout: 2 * time.Second,
		Session:          opts,
	}, stubAuth{password: "secret"}, nil, zap.NewNop())
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)
	return srv, "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func authenticate(t *testing.T, conn *websocket.Conn, account, password string) message.AuthResult {
	t.Helper()
	err := conn.WriteJSON(map[string]string{"type": "authenticate", "account": account, "password": password})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	var res message.AuthResult
	readJSON(t, conn, &res)
	return res
}

func waitSession(t *testing.T, srv *Server) *Session {
	t.Helper()
	select {
	case sess := <-srv.NewSessions():
		return sess
	case <-time.After(2 * time.Second):
		t.Fatal("no session delivered")
		return nil
	}
}

func TestHandshakeAcceptsValidCredentials(t *testing.T) {
	srv, url := newTestServer(t, SessionOptions{})
	conn := dial(t, url)

	res := authenticate(t, conn, "Alice", "secret")
	testutil.AssertEqual(t, "type", res.Type, message.TypeAuthResult)
	testutil.AssertEqual(t, "success", res.Success, true)

	sess := waitSession(t, srv)
	testutil.AssertEqual(t, "account", sess.Account, "alice")
	testutil.AssertEqual(t, "state", sess.State(), message.StateAuthenticated)
}

func TestHandshakeRejectsBadPassword(t *testing.T) {
	srv, url := newTestServer(t, SessionOptions{})
	conn := dial(t, url)

	res := authenticate(t, conn, "alice", "wrong")
	testutil.AssertEqual(t, "success", res.Success, false)
	testutil.AssertEqual(t, "error", res.Error, "invalid_credentials")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed")
	}
	select {
	case <-srv.NewSessions():
		t.Fatal("no session should reach the game loop")
	default:
	}
}

func TestHandshakeRequiresAuthenticateFirst(t *testing.T) {
	_, url := newTestServer(t, SessionOptions{})
	conn := dial(t, url)

	conn.WriteJSON(map[string]any{"type": "join_game", "characterId": "c1"})
	var res message.AuthResult
	readJSON(t, conn, &res)
	testutil.AssertEqual(t, "error", res.Error, "authentication_required")
}

func TestSessionRoundTrip(t *testing.T) {
	srv, url := newTestServer(t, SessionOptions{})
	conn := dial(t, url)
	authenticate(t, conn, "bob", "secret")
	sess := waitSession(t, srv)

	conn.WriteJSON(map[string]any{"type": "player_move"})
	select {
	case data := <-sess.InQueue:
		env, err := message.Decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		testutil.AssertEqual(t, "inbound type", env.Type, message.TypePlayerMove)
	case <-time.After(2 * time.Second):
		t.Fatal("inbound frame not queued")
	}

	if err := sess.Send([]byte(`{"type":"error","error":"x"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	var out message.Error
	readJSON(t, conn, &out)
	testutil.AssertEqual(t, "outbound", out.Error, "x")
}

func TestSendAfterClose(t *testing.T) {
	srv, url := newTestServer(t, SessionOptions{})
	conn := dial(t, url)
	authenticate(t, conn, "carol", "secret")
	sess := waitSession(t, srv)

	sess.Close()
	sess.Close()
	testutil.AssertEqual(t, "closed", sess.IsClosed(), true)
	testutil.AssertEqual(t, "state", sess.State(), message.StateDisconnected)
	if err := sess.Send([]byte("{}")); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestRateLimitClosesConnection(t *testing.T) {
	srv, url := newTestServer(t, SessionOptions{MessagesPerSecond: 2, InQueueSize: 16})
	conn := dial(t, url)
	authenticate(t, conn, "dave", "secret")
	sess := waitSession(t, srv)

	for i := 0; i < 5; i++ {
		conn.WriteJSON(map[string]any{"type": "player_move"})
	}
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected session to close on flood")
	}
}

func TestHealthz(t *testing.T) {
	stats := &Stats{}
	stats.Sessions.Store(3)
	stats.Rooms.Store(2)
	srv := NewServer(ServerOptions{}, stubAuth{}, stats, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body struct {
		Status   string `json:"status"`
		Sessions int64  `json:"sessions"`
		Rooms    int64  `json:"rooms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	testutil.AssertEqual(t, "status", body.Status, "ok")
	testutil.AssertEqual(t, "sessions", body.Sessions, int64(3))
	testutil.AssertEqual(t, "rooms", body.Rooms, int64(2))
}
